package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_AddItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	params := AddToCartParams{BuyerID: 1, ProductID: 9, Quantity: 2}
	cols := []string{"id", "buyer_id", "product_id", "quantity", "created_at", "updated_at"}

	t.Run("Insert", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO carts .* ON CONFLICT \(buyer_id, product_id\) DO UPDATE SET quantity = carts.quantity \+ EXCLUDED.quantity`).
			WithArgs(params.BuyerID, params.ProductID, params.Quantity).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 1, 9, 2, now, now))

		item, err := repo.AddItem(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, int64(3), item.ID)
		assert.Equal(t, 2, item.Quantity)
	})

	t.Run("Existing row is incremented", func(t *testing.T) {
		now := time.Now()
		mock.ExpectQuery(`INSERT INTO carts`).
			WithArgs(params.BuyerID, params.ProductID, params.Quantity).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(3, 1, 9, 5, now, now))

		item, err := repo.AddItem(context.Background(), params)
		require.NoError(t, err)
		assert.Equal(t, int64(3), item.ID)
		assert.Equal(t, 5, item.Quantity)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO carts`).WillReturnError(errors.New("db error"))

		_, err := repo.AddItem(context.Background(), params)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByBuyer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM carts c JOIN products p ON p.id = c.product_id .* WHERE c.buyer_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "buyer_id", "product_id", "quantity", "created_at", "updated_at", "name", "price", "image_url",
		}).
			AddRow(1, 1, 9, 2, now, now, "Lamp", "12.50", "lamp.png").
			AddRow(2, 1, 10, 1, now, now, "Rug", "40", nil))

	items, err := repo.ListByBuyer(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Lamp", items[0].ProductName)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("12.50")))
	require.NotNil(t, items[0].ImageURL)
	assert.Equal(t, "lamp.png", *items[0].ImageURL)
	assert.Nil(t, items[1].ImageURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateQuantity(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	params := UpdateCartParams{BuyerID: 1, ProductID: 9, Quantity: 5}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE carts SET quantity = \$1`).
			WithArgs(params.Quantity, params.BuyerID, params.ProductID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateQuantity(context.Background(), params))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`UPDATE carts`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateQuantity(context.Background(), params)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE carts`).WillReturnError(errors.New("db error"))

		assert.Error(t, repo.UpdateQuantity(context.Background(), params))
	})
}

func TestRepository_RemoveItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM carts WHERE buyer_id = \$1 AND product_id = \$2`).
			WithArgs(int64(1), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.RemoveItem(context.Background(), 1, 9))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM carts`).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.RemoveItem(context.Background(), 1, 9), ErrCartItemNotFound)
	})
}

func TestRepository_ClearCart(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Empty cart is fine", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM carts WHERE buyer_id = \$1`).
			WithArgs(int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.ClearCart(context.Background(), 1))
	})

	t.Run("Error", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM carts`).WillReturnError(errors.New("db error"))

		assert.Error(t, repo.ClearCart(context.Background(), 1))
	})
}

func TestRepository_GetCheckoutRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectQuery(`SELECT .* FROM carts c LEFT JOIN products p ON p.id = c.product_id WHERE c.buyer_id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "quantity", "price", "category_id", "found"}).
			AddRow(9, 2, "10.00", 3, true).
			AddRow(10, 1, "0", nil, false))

	rows, err := repo.GetCheckoutRows(context.Background(), db, 4)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].ProductFound)
	assert.True(t, rows[0].Price.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, rows[0].CategoryID)
	assert.Equal(t, int64(3), *rows[0].CategoryID)

	assert.False(t, rows[1].ProductFound)
	assert.Nil(t, rows[1].CategoryID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_DeleteProducts(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	t.Run("Deletes purchased ids", func(t *testing.T) {
		mock.ExpectExec(`DELETE FROM carts WHERE buyer_id = \$1 AND product_id = ANY\(\$2\)`).
			WithArgs(int64(4), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.DeleteProducts(context.Background(), db, 4, []int64{9, 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("No ids is a no-op", func(t *testing.T) {
		n, err := repo.DeleteProducts(context.Background(), db, 4, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
