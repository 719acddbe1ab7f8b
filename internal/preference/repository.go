package preference

import (
	"context"
	"time"

	"cartify/internal/db"
)

type Repository interface {
	Lock(ctx context.Context, q db.DBTX, buyerID int64) error
	Refresh(ctx context.Context, q db.DBTX, buyerID, categoryID int64, at time.Time) (bool, error)
	Count(ctx context.Context, q db.DBTX, buyerID int64) (int, error)
	EvictOldest(ctx context.Context, q db.DBTX, buyerID int64, n int) (int64, error)
	Insert(ctx context.Context, q db.DBTX, buyerID, categoryID int64, at time.Time) error
	ListByBuyer(ctx context.Context, q db.DBTX, buyerID int64) ([]Preference, error)
}

type repository struct{}

func NewRepository() Repository {
	return &repository{}
}

// Lock takes a transaction-scoped advisory lock on the full 64-bit buyer id
// so that concurrent touches for the same buyer cannot overshoot the
// capacity. The single-key bigint lock space belongs to preference locks.
func (r *repository) Lock(ctx context.Context, q db.DBTX, buyerID int64) error {
	_, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::bigint)`, buyerID)
	return err
}

func (r *repository) Refresh(ctx context.Context, q db.DBTX, buyerID, categoryID int64, at time.Time) (bool, error) {
	res, err := q.ExecContext(ctx, `
		UPDATE buyer_preferences
		SET updated_at = $3
		WHERE buyer_id = $1 AND category_id = $2
	`, buyerID, categoryID, at)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) Count(ctx context.Context, q db.DBTX, buyerID int64) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM buyer_preferences WHERE buyer_id = $1
	`, buyerID).Scan(&n)
	return n, err
}

// EvictOldest deletes the n least recently touched rows of the buyer.
func (r *repository) EvictOldest(ctx context.Context, q db.DBTX, buyerID int64, n int) (int64, error) {
	res, err := q.ExecContext(ctx, `
		DELETE FROM buyer_preferences
		WHERE buyer_id = $1
		  AND category_id IN (
			SELECT category_id
			FROM buyer_preferences
			WHERE buyer_id = $1
			ORDER BY updated_at ASC, category_id ASC
			LIMIT $2
		  )
	`, buyerID, n)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) Insert(ctx context.Context, q db.DBTX, buyerID, categoryID int64, at time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO buyer_preferences (buyer_id, category_id, updated_at)
		VALUES ($1, $2, $3)
	`, buyerID, categoryID, at)
	return err
}

func (r *repository) ListByBuyer(ctx context.Context, q db.DBTX, buyerID int64) ([]Preference, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT buyer_id, category_id, updated_at
		FROM buyer_preferences
		WHERE buyer_id = $1
		ORDER BY updated_at DESC, category_id ASC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.BuyerID, &p.CategoryID, &p.UpdatedAt); err != nil {
			return nil, err
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}
