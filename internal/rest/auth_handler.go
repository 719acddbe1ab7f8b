package rest

import (
	"net/http"

	"cartify/internal/user"

	"github.com/labstack/echo/v4"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: string(u.Role)}
}

func (h *Handler) login(c echo.Context) error {
	req := new(credentialsRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "login failed", errBadRequest.Error())
	}

	token, u, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, "login failed", err)
	}

	return c.JSON(http.StatusOK, envelope{
		"message": "login successful",
		"token":   token,
		"user":    toUserResponse(u),
	})
}

func (h *Handler) register(c echo.Context) error {
	req := new(credentialsRequest)
	if err := c.Bind(req); err != nil {
		return fail(c, http.StatusBadRequest, "registration failed", errBadRequest.Error())
	}

	token, u, err := h.users.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(c, "registration failed", err)
	}

	return c.JSON(http.StatusCreated, envelope{
		"message": "registration successful",
		"token":   token,
		"user":    toUserResponse(u),
	})
}
