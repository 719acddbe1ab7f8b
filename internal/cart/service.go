package cart

import (
	"context"
	"errors"

	"cartify/internal/logger"
	"cartify/internal/product"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddToCart(ctx context.Context, params AddToCartParams) (*CartItem, error)
	GetCart(ctx context.Context, buyerID int64) ([]*CartItem, error)
	UpdateQuantity(ctx context.Context, params UpdateCartParams) error
	RemoveFromCart(ctx context.Context, buyerID, productID int64) error
	ClearCart(ctx context.Context, buyerID int64) error
}

// ProductFinder looks up the live product row.
type ProductFinder interface {
	GetByID(ctx context.Context, productID int64) (*product.Product, error)
}

type service struct {
	repo     Repository
	products ProductFinder
}

func NewService(repo Repository, products ProductFinder) Service {
	return &service{repo: repo, products: products}
}

// AddToCart adds a product to the buyer's cart, incrementing the quantity
// when the product is already there.
func (s *service) AddToCart(ctx context.Context, params AddToCartParams) (*CartItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddToCart"),
		zap.Int64("buyer_id", params.BuyerID),
		zap.Int64("product_id", params.ProductID),
	)

	if params.BuyerID <= 0 {
		return nil, ErrUserNotAuthenticated
	}
	if params.ProductID <= 0 {
		return nil, ErrInvalidProduct
	}
	if params.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, params.ProductID)
	if errors.Is(err, product.ErrProductNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		log.Error("failed to load product", zap.Error(err))
		return nil, err
	}
	if p.Stock < params.Quantity {
		log.Warn("insufficient stock",
			zap.Int("stock", p.Stock),
			zap.Int("requested", params.Quantity),
		)
		return nil, ErrInsufficientStock
	}

	item, err := s.repo.AddItem(ctx, params)
	if err != nil {
		return nil, err
	}
	item.ProductName = p.Name
	item.Price = p.Price
	return item, nil
}

func (s *service) GetCart(ctx context.Context, buyerID int64) ([]*CartItem, error) {
	if buyerID <= 0 {
		return nil, ErrUserNotAuthenticated
	}

	items, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*CartItem{}
	}
	return items, nil
}

// UpdateQuantity sets the quantity of a cart row; zero or less removes it.
func (s *service) UpdateQuantity(ctx context.Context, params UpdateCartParams) error {
	if params.BuyerID <= 0 {
		return ErrUserNotAuthenticated
	}
	if params.ProductID <= 0 {
		return ErrInvalidProduct
	}

	if params.Quantity <= 0 {
		return s.repo.RemoveItem(ctx, params.BuyerID, params.ProductID)
	}
	return s.repo.UpdateQuantity(ctx, params)
}

func (s *service) RemoveFromCart(ctx context.Context, buyerID, productID int64) error {
	if buyerID <= 0 {
		return ErrUserNotAuthenticated
	}
	if productID <= 0 {
		return ErrInvalidProduct
	}
	return s.repo.RemoveItem(ctx, buyerID, productID)
}

func (s *service) ClearCart(ctx context.Context, buyerID int64) error {
	if buyerID <= 0 {
		return ErrUserNotAuthenticated
	}
	return s.repo.ClearCart(ctx, buyerID)
}
