package payment

import (
	"context"
	"database/sql"
	"errors"

	"cartify/internal/db"
	"cartify/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// Record inserts the payment on q and fills in its id and timestamp.
	Record(ctx context.Context, q db.DBTX, p *Payment) error
	GetByOrder(ctx context.Context, orderID int64) (*Payment, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Record(ctx context.Context, q db.DBTX, p *Payment) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Record"),
		zap.Int64("order_id", p.OrderID),
		zap.String("payment_method", string(p.Method)),
	)

	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	err := q.QueryRowContext(ctx, `
		INSERT INTO payments (order_id, buyer_id, amount, payment_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.OrderID, p.BuyerID, p.Amount, string(p.Method)).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		log.Error("failed to record payment", zap.Error(err))
		return err
	}

	log.Debug("payment recorded", zap.Int64("payment_id", p.ID))
	return nil
}

func (r *repository) GetByOrder(ctx context.Context, orderID int64) (*Payment, error) {
	var (
		p      Payment
		method string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, order_id, buyer_id, amount, payment_method, created_at
		FROM payments
		WHERE order_id = $1
	`, orderID).Scan(&p.ID, &p.OrderID, &p.BuyerID, &p.Amount, &method, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Method = Method(method)
	return &p, nil
}
