package user

import "errors"

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidInput       = errors.New("email and password are required")
	ErrUserNotFound       = errors.New("user not found")
)

const pgUniqueViolation = "23505"
