package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Refresh(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository()
	ctx := context.Background()
	now := time.Now()

	t.Run("Existing row", func(t *testing.T) {
		mock.ExpectExec(`UPDATE buyer_preferences SET updated_at = \$3 WHERE buyer_id = \$1 AND category_id = \$2`).
			WithArgs(int64(1), int64(4), now).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Refresh(ctx, conn, 1, 4, now)
		assert.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Missing row", func(t *testing.T) {
		mock.ExpectExec(`UPDATE buyer_preferences`).
			WithArgs(int64(1), int64(5), now).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Refresh(ctx, conn, 1, 5, now)
		assert.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectExec(`UPDATE buyer_preferences`).WillReturnError(errors.New("db error"))

		_, err := repo.Refresh(ctx, conn, 1, 5, now)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CountEvictInsert(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository()
	ctx := context.Background()
	now := time.Now()

	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1::bigint\)`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Lock(ctx, conn, 1))

	// ids that agree in their low 32 bits still lock separately
	const farBuyer = int64(1) + 1<<32
	mock.ExpectExec(`SELECT pg_advisory_xact_lock\(\$1::bigint\)`).
		WithArgs(farBuyer).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.Lock(ctx, conn, farBuyer))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM buyer_preferences WHERE buyer_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))
	n, err := repo.Count(ctx, conn, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	mock.ExpectExec(`DELETE FROM buyer_preferences WHERE buyer_id = \$1 AND category_id IN \( ?SELECT category_id FROM buyer_preferences WHERE buyer_id = \$1 ORDER BY updated_at ASC, category_id ASC LIMIT \$2 ?\)`).
		WithArgs(int64(1), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	evicted, err := repo.EvictOldest(ctx, conn, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), evicted)

	mock.ExpectExec(`INSERT INTO buyer_preferences \(buyer_id, category_id, updated_at\)`).
		WithArgs(int64(1), int64(16), now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Insert(ctx, conn, 1, 16, now))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByBuyer(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	repo := NewRepository()
	now := time.Now()

	mock.ExpectQuery(`SELECT buyer_id, category_id, updated_at FROM buyer_preferences WHERE buyer_id = \$1 ORDER BY updated_at DESC`).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"buyer_id", "category_id", "updated_at"}).
			AddRow(2, 9, now).
			AddRow(2, 3, now.Add(-time.Hour)))

	prefs, err := repo.ListByBuyer(context.Background(), conn, 2)
	require.NoError(t, err)
	require.Len(t, prefs, 2)
	assert.Equal(t, int64(9), prefs[0].CategoryID)
	assert.Equal(t, int64(3), prefs[1].CategoryID)
}
