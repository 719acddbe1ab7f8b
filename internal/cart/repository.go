package cart

import (
	"context"
	"database/sql"
	"time"

	"cartify/internal/db"
	"cartify/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	AddItem(ctx context.Context, params AddToCartParams) (*CartItem, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*CartItem, error)
	UpdateQuantity(ctx context.Context, params UpdateCartParams) error
	RemoveItem(ctx context.Context, buyerID, productID int64) error
	ClearCart(ctx context.Context, buyerID int64) error

	// GetCheckoutRows and DeleteProducts take the querier explicitly so
	// they can join the order transaction.
	GetCheckoutRows(ctx context.Context, q db.DBTX, buyerID int64) ([]CheckoutRow, error)
	DeleteProducts(ctx context.Context, q db.DBTX, buyerID int64, productIDs []int64) (int64, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// AddItem inserts the cart row or increments the quantity of the existing
// (buyer, product) row.
func (r *repository) AddItem(ctx context.Context, params AddToCartParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "AddItem"),
		zap.Int64("buyer_id", params.BuyerID),
		zap.Int64("product_id", params.ProductID),
	)

	log.Debug("start add cart item")

	item := &CartItem{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (buyer_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (buyer_id, product_id)
		DO UPDATE SET quantity = carts.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, buyer_id, product_id, quantity, created_at, updated_at
	`, params.BuyerID, params.ProductID, params.Quantity).Scan(
		&item.ID,
		&item.BuyerID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to add cart item", zap.Error(err))
		return nil, err
	}

	log.Info("success add cart item",
		zap.Int64("cart_id", item.ID),
		zap.Int("quantity", item.Quantity),
	)
	return item, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID int64) ([]*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListByBuyer"),
		zap.Int64("buyer_id", buyerID),
	)

	start := time.Now()

	rows, err := r.db.QueryContext(ctx, `
		SELECT
			c.id,
			c.buyer_id,
			c.product_id,
			c.quantity,
			c.created_at,
			c.updated_at,
			p.name,
			p.price,
			img.image_url
		FROM carts c
		JOIN products p ON p.id = c.product_id
		LEFT JOIN LATERAL (
			SELECT pi.image_url
			FROM product_images pi
			WHERE pi.product_id = p.id
			ORDER BY pi.id ASC
			LIMIT 1
		) img ON TRUE
		WHERE c.buyer_id = $1
		ORDER BY c.created_at DESC
	`, buyerID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*CartItem
	for rows.Next() {
		item := &CartItem{}
		if err := rows.Scan(
			&item.ID,
			&item.BuyerID,
			&item.ProductID,
			&item.Quantity,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.ProductName,
			&item.Price,
			&item.ImageURL,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}

	log.Info("query success",
		zap.Int("rows", len(items)),
		zap.Duration("duration", time.Since(start)),
	)
	return items, nil
}

func (r *repository) UpdateQuantity(ctx context.Context, params UpdateCartParams) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET quantity = $1, updated_at = NOW()
		WHERE buyer_id = $2 AND product_id = $3
	`, params.Quantity, params.BuyerID, params.ProductID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *repository) RemoveItem(ctx context.Context, buyerID, productID int64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM carts
		WHERE buyer_id = $1 AND product_id = $2
	`, buyerID, productID)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ClearCart is idempotent; clearing an empty cart is not an error.
func (r *repository) ClearCart(ctx context.Context, buyerID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE buyer_id = $1`, buyerID)
	return err
}

// GetCheckoutRows reads the buyer's cart joined with live product data.
// Rows whose product has been deleted come back with ProductFound false.
func (r *repository) GetCheckoutRows(ctx context.Context, q db.DBTX, buyerID int64) ([]CheckoutRow, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetCheckoutRows"),
		zap.Int64("buyer_id", buyerID),
	)

	rows, err := q.QueryContext(ctx, `
		SELECT
			c.product_id,
			c.quantity,
			COALESCE(p.price, 0),
			p.category_id,
			p.id IS NOT NULL
		FROM carts c
		LEFT JOIN products p ON p.id = c.product_id
		WHERE c.buyer_id = $1
		ORDER BY c.id ASC
	`, buyerID)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []CheckoutRow
	for rows.Next() {
		var row CheckoutRow
		if err := rows.Scan(
			&row.ProductID,
			&row.Quantity,
			&row.Price,
			&row.CategoryID,
			&row.ProductFound,
		); err != nil {
			log.Error("row scan failed", zap.Error(err))
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		log.Error("rows iteration failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *repository) DeleteProducts(ctx context.Context, q db.DBTX, buyerID int64, productIDs []int64) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	res, err := q.ExecContext(ctx, `
		DELETE FROM carts
		WHERE buyer_id = $1 AND product_id = ANY($2)
	`, buyerID, pq.Array(productIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
