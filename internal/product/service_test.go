package product

import (
	"context"
	"errors"
	"testing"

	"cartify/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByID(ctx context.Context, productID int64) (*Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) GetForOrder(ctx context.Context, q db.DBTX, productID int64) (*Product, error) {
	args := m.Called(ctx, q, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Product), args.Error(1)
}

func (m *MockRepository) ListByCategories(ctx context.Context, categoryIDs []int64, limit int) ([]*Product, error) {
	args := m.Called(ctx, categoryIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Product), args.Error(1)
}

type MockPreferenceReader struct {
	mock.Mock
}

func (m *MockPreferenceReader) RecentCategories(ctx context.Context, buyerID int64) ([]int64, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func TestService_Explore(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		prefs := new(MockPreferenceReader)
		svc := NewService(repo, prefs, 10)

		prefs.On("RecentCategories", ctx, int64(1)).Return([]int64{4, 2}, nil)
		repo.On("ListByCategories", ctx, []int64{4, 2}, 10).Return([]*Product{{ID: 8}}, nil)

		products, err := svc.Explore(ctx, 1)

		assert.NoError(t, err)
		assert.Len(t, products, 1)
		repo.AssertExpectations(t)
	})

	t.Run("No preferences", func(t *testing.T) {
		repo := new(MockRepository)
		prefs := new(MockPreferenceReader)
		svc := NewService(repo, prefs, 10)

		prefs.On("RecentCategories", ctx, int64(1)).Return([]int64{}, nil)

		products, err := svc.Explore(ctx, 1)

		assert.NoError(t, err)
		assert.Empty(t, products)
		repo.AssertNotCalled(t, "ListByCategories", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Preference error", func(t *testing.T) {
		prefs := new(MockPreferenceReader)
		svc := NewService(new(MockRepository), prefs, 0)

		prefs.On("RecentCategories", ctx, int64(1)).Return(nil, errors.New("db down"))

		_, err := svc.Explore(ctx, 1)
		assert.Error(t, err)
	})
}
