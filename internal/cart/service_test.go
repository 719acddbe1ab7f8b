package cart

import (
	"context"
	"errors"
	"testing"

	"cartify/internal/db"
	"cartify/internal/product"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) AddItem(ctx context.Context, params AddToCartParams) (*CartItem, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*CartItem), args.Error(1)
}

func (m *MockRepository) ListByBuyer(ctx context.Context, buyerID int64) ([]*CartItem, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*CartItem), args.Error(1)
}

func (m *MockRepository) UpdateQuantity(ctx context.Context, params UpdateCartParams) error {
	return m.Called(ctx, params).Error(0)
}

func (m *MockRepository) RemoveItem(ctx context.Context, buyerID, productID int64) error {
	return m.Called(ctx, buyerID, productID).Error(0)
}

func (m *MockRepository) ClearCart(ctx context.Context, buyerID int64) error {
	return m.Called(ctx, buyerID).Error(0)
}

func (m *MockRepository) GetCheckoutRows(ctx context.Context, q db.DBTX, buyerID int64) ([]CheckoutRow, error) {
	args := m.Called(ctx, q, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CheckoutRow), args.Error(1)
}

func (m *MockRepository) DeleteProducts(ctx context.Context, q db.DBTX, buyerID int64, productIDs []int64) (int64, error) {
	args := m.Called(ctx, q, buyerID, productIDs)
	return args.Get(0).(int64), args.Error(1)
}

type MockProductFinder struct {
	mock.Mock
}

func (m *MockProductFinder) GetByID(ctx context.Context, productID int64) (*product.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func TestService_AddToCart(t *testing.T) {
	ctx := context.Background()
	params := AddToCartParams{BuyerID: 1, ProductID: 9, Quantity: 2}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductFinder)
		svc := NewService(repo, products)

		products.On("GetByID", ctx, int64(9)).
			Return(&product.Product{ID: 9, Name: "Lamp", Price: decimal.NewFromInt(12), Stock: 10}, nil)
		repo.On("AddItem", ctx, params).Return(&CartItem{ID: 3, BuyerID: 1, ProductID: 9, Quantity: 2}, nil)

		item, err := svc.AddToCart(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, "Lamp", item.ProductName)
		assert.True(t, item.Price.Equal(decimal.NewFromInt(12)))
		repo.AssertExpectations(t)
	})

	t.Run("Invalid input", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockProductFinder))

		_, err := svc.AddToCart(ctx, AddToCartParams{ProductID: 9, Quantity: 1})
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)

		_, err = svc.AddToCart(ctx, AddToCartParams{BuyerID: 1, Quantity: 1})
		assert.ErrorIs(t, err, ErrInvalidProduct)

		_, err = svc.AddToCart(ctx, AddToCartParams{BuyerID: 1, ProductID: 9})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("Product missing", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductFinder)
		svc := NewService(repo, products)

		products.On("GetByID", ctx, int64(9)).Return(nil, product.ErrProductNotFound)

		_, err := svc.AddToCart(ctx, params)
		assert.ErrorIs(t, err, ErrProductNotFound)
		repo.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything)
	})

	t.Run("Insufficient stock", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductFinder)
		svc := NewService(repo, products)

		products.On("GetByID", ctx, int64(9)).Return(&product.Product{ID: 9, Stock: 1}, nil)

		_, err := svc.AddToCart(ctx, params)
		assert.ErrorIs(t, err, ErrInsufficientStock)
		repo.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything)
	})

	t.Run("Repository error", func(t *testing.T) {
		repo := new(MockRepository)
		products := new(MockProductFinder)
		svc := NewService(repo, products)

		products.On("GetByID", ctx, int64(9)).Return(&product.Product{ID: 9, Stock: 5}, nil)
		repo.On("AddItem", ctx, params).Return(nil, errors.New("db error"))

		_, err := svc.AddToCart(ctx, params)
		assert.EqualError(t, err, "db error")
	})
}

func TestService_GetCart(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty cart yields empty slice", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductFinder))
		repo.On("ListByBuyer", ctx, int64(1)).Return(nil, nil)

		items, err := svc.GetCart(ctx, 1)
		require.NoError(t, err)
		assert.NotNil(t, items)
		assert.Empty(t, items)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockProductFinder))
		_, err := svc.GetCart(ctx, 0)
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)
	})
}

func TestService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("Positive quantity updates", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductFinder))
		params := UpdateCartParams{BuyerID: 1, ProductID: 9, Quantity: 4}
		repo.On("UpdateQuantity", ctx, params).Return(nil)

		assert.NoError(t, svc.UpdateQuantity(ctx, params))
		repo.AssertExpectations(t)
	})

	t.Run("Zero quantity removes", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, new(MockProductFinder))
		repo.On("RemoveItem", ctx, int64(1), int64(9)).Return(nil)

		assert.NoError(t, svc.UpdateQuantity(ctx, UpdateCartParams{BuyerID: 1, ProductID: 9}))
		repo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything)
	})

	t.Run("Missing product id", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockProductFinder))
		err := svc.UpdateQuantity(ctx, UpdateCartParams{BuyerID: 1, Quantity: 1})
		assert.ErrorIs(t, err, ErrInvalidProduct)
	})
}

func TestService_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	svc := NewService(repo, new(MockProductFinder))

	repo.On("RemoveItem", ctx, int64(1), int64(9)).Return(ErrCartItemNotFound)
	repo.On("ClearCart", ctx, int64(1)).Return(nil)

	assert.ErrorIs(t, svc.RemoveFromCart(ctx, 1, 9), ErrCartItemNotFound)
	assert.NoError(t, svc.ClearCart(ctx, 1))
	assert.ErrorIs(t, svc.ClearCart(ctx, 0), ErrUserNotAuthenticated)
	assert.ErrorIs(t, svc.RemoveFromCart(ctx, 1, 0), ErrInvalidProduct)
}
