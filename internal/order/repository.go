package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"cartify/internal/db"
	"cartify/internal/logger"

	"go.uber.org/zap"
)

// Repository methods that take a db.DBTX run on the caller's transaction.
type Repository interface {
	InsertOrder(ctx context.Context, q db.DBTX, o *Order) error
	InsertItem(ctx context.Context, q db.DBTX, item OrderItem) error
	InsertAddress(ctx context.Context, q db.DBTX, a Address) error
	LockOrder(ctx context.Context, q db.DBTX, orderID int64) (*Order, error)
	UpdateStatus(ctx context.Context, q db.DBTX, orderID int64, status Status) error
	Delete(ctx context.Context, q db.DBTX, orderID int64) error

	GetOrder(ctx context.Context, orderID int64) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]Summary, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// InsertOrder stores the header and fills in the generated id and
// creation time.
func (r *repository) InsertOrder(ctx context.Context, q db.DBTX, o *Order) error {
	return q.QueryRowContext(ctx, `
		INSERT INTO orders (buyer_id, total_price, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, o.BuyerID, o.TotalPrice, string(o.Status)).Scan(&o.ID, &o.CreatedAt)
}

func (r *repository) InsertItem(ctx context.Context, q db.DBTX, item OrderItem) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
	`, item.OrderID, item.ProductID, item.Quantity, item.Price)
	return err
}

func (r *repository) InsertAddress(ctx context.Context, q db.DBTX, a Address) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO order_addresses (order_id, address, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5)
	`, a.OrderID, a.Address, a.City, a.PostalCode, a.Country)
	return err
}

// LockOrder reads the order header and holds its row lock until the
// transaction ends.
func (r *repository) LockOrder(ctx context.Context, q db.DBTX, orderID int64) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, buyer_id, total_price, status, created_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`, orderID).Scan(&o.ID, &o.BuyerID, &o.TotalPrice, &status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func (r *repository) UpdateStatus(ctx context.Context, q db.DBTX, orderID int64, status Status) error {
	res, err := q.ExecContext(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, string(status), orderID)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Delete removes the order with its items, address and payment.
func (r *repository) Delete(ctx context.Context, q db.DBTX, orderID int64) error {
	for _, stmt := range []string{
		`DELETE FROM payments WHERE order_id = $1`,
		`DELETE FROM order_items WHERE order_id = $1`,
		`DELETE FROM order_addresses WHERE order_id = $1`,
	} {
		if _, err := q.ExecContext(ctx, stmt, orderID); err != nil {
			return err
		}
	}

	res, err := q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID)
	if err != nil {
		return err
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// GetOrder loads the header, its items (each with product name and first
// image) and the shipping address when one was recorded.
func (r *repository) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetOrder"),
		zap.Int64("order_id", orderID),
	)

	start := time.Now()

	var (
		o      Order
		status string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, total_price, status, created_at
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&o.ID, &o.BuyerID, &o.TotalPrice, &status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		log.Error("failed to fetch order", zap.Error(err))
		return nil, err
	}
	o.Status = Status(status)

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			oi.order_id,
			oi.product_id,
			oi.quantity,
			oi.price,
			COALESCE(p.name, ''),
			img.image_url
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		LEFT JOIN LATERAL (
			SELECT pi.image_url
			FROM product_images pi
			WHERE pi.product_id = oi.product_id
			ORDER BY pi.id ASC
			LIMIT 1
		) img ON TRUE
		WHERE oi.order_id = $1
		ORDER BY oi.id ASC
	`, orderID)
	if err != nil {
		log.Error("failed to fetch order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.Price,
			&item.ProductName,
			&item.ImageURL,
		); err != nil {
			log.Error("failed to scan order item", zap.Error(err))
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var a Address
	err = r.db.QueryRowContext(ctx, `
		SELECT order_id, address, city, postal_code, country
		FROM order_addresses
		WHERE order_id = $1
	`, orderID).Scan(&a.OrderID, &a.Address, &a.City, &a.PostalCode, &a.Country)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		log.Error("failed to fetch order address", zap.Error(err))
		return nil, err
	default:
		o.Address = &a
	}

	log.Debug("order loaded",
		zap.Int("items", len(o.Items)),
		zap.Duration("duration", time.Since(start)),
	)
	return &o, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID int64) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, total_price, status
		FROM orders
		WHERE buyer_id = $1
		ORDER BY created_at DESC, id DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s      Summary
			status string
		)
		if err := rows.Scan(&s.OrderID, &s.OrderDate, &s.TotalPrice, &status); err != nil {
			return nil, err
		}
		s.Status = Status(status)
		out = append(out, s)
	}
	return out, rows.Err()
}
