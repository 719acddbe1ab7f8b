package product

import (
	"context"
	"database/sql"
	"errors"

	"cartify/internal/db"
	"cartify/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	GetByID(ctx context.Context, productID int64) (*Product, error)
	// GetForOrder returns the live price and category of a product.
	GetForOrder(ctx context.Context, q db.DBTX, productID int64) (*Product, error)
	ListByCategories(ctx context.Context, categoryIDs []int64, limit int) ([]*Product, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, productID int64) (*Product, error) {
	return r.GetForOrder(ctx, r.db, productID)
}

func (r *repository) GetForOrder(ctx context.Context, q db.DBTX, productID int64) (*Product, error) {
	var p Product
	err := q.QueryRowContext(ctx, `
		SELECT id, seller_id, name, price, stock, category_id
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.SellerID, &p.Name, &p.Price, &p.Stock, &p.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByCategories returns products of the given categories, grouped in
// the order the categories are listed, each with its first image.
func (r *repository) ListByCategories(ctx context.Context, categoryIDs []int64, limit int) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByCategories"),
		zap.Int("category_count", len(categoryIDs)),
		zap.Int("limit", limit),
	)

	rows, err := r.db.QueryContext(ctx, `
		SELECT p.id, p.seller_id, p.name, p.price, p.stock, p.category_id, img.image_url
		FROM products p
		LEFT JOIN LATERAL (
			SELECT pi.image_url
			FROM product_images pi
			WHERE pi.product_id = p.id
			ORDER BY pi.id ASC
			LIMIT 1
		) img ON TRUE
		WHERE p.category_id = ANY($1)
		ORDER BY array_position($1, p.category_id), p.created_at DESC
		LIMIT $2
	`, pq.Array(categoryIDs), limit)
	if err != nil {
		log.Error("failed to query products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.Price, &p.Stock, &p.CategoryID, &p.ImageURL); err != nil {
			log.Error("failed to scan product", zap.Error(err))
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}
