package payment

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

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{in: "cod", want: MethodCOD},
		{in: "COD", want: MethodCOD},
		{in: "  Cash   on Delivery ", want: MethodCOD},
		{in: "online", want: MethodOnline},
		{in: "Credit Card", want: MethodOnline},
		{in: "bank_transfer", want: MethodOnline},
		{in: "", wantErr: true},
		{in: "barter", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMethod)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepository_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		p := &Payment{OrderID: 101, BuyerID: 7, Amount: decimal.RequireFromString("150.25"), Method: MethodCOD}

		mock.ExpectQuery(`INSERT INTO payments \(order_id, buyer_id, amount, payment_method\)`).
			WithArgs(int64(101), int64(7), sqlmock.AnyArg(), "cod").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(55, now))

		require.NoError(t, repo.Record(ctx, db, p))
		assert.Equal(t, int64(55), p.ID)
		assert.Equal(t, now, p.CreatedAt)
	})

	t.Run("Non-positive amount", func(t *testing.T) {
		p := &Payment{OrderID: 101, BuyerID: 7, Amount: decimal.Zero, Method: MethodCOD}
		assert.ErrorIs(t, repo.Record(ctx, db, p), ErrInvalidAmount)
	})

	t.Run("DBError", func(t *testing.T) {
		p := &Payment{OrderID: 101, BuyerID: 7, Amount: decimal.NewFromInt(1), Method: MethodOnline}
		mock.ExpectQuery(`INSERT INTO payments`).WillReturnError(errors.New("database error"))

		assert.Error(t, repo.Record(ctx, db, p))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	cols := []string{"id", "order_id", "buyer_id", "amount", "payment_method", "created_at"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM payments WHERE order_id = \$1`).
			WithArgs(int64(101)).
			WillReturnRows(sqlmock.NewRows(cols).AddRow(55, 101, 7, "20.00", "online", time.Now()))

		p, err := repo.GetByOrder(ctx, 101)
		require.NoError(t, err)
		assert.Equal(t, MethodOnline, p.Method)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(20)))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM payments`).
			WithArgs(int64(102)).
			WillReturnRows(sqlmock.NewRows(cols))

		_, err := repo.GetByOrder(ctx, 102)
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	})
}
