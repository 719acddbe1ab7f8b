package preference

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cartify/internal/config"
	"cartify/internal/db"
	"cartify/internal/logger"
	"cartify/internal/utils"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Tracker keeps, per buyer, a bounded recency-ordered set of categories.
type Tracker interface {
	Touch(ctx context.Context, buyerID, categoryID int64) error
	TouchAll(ctx context.Context, buyerID int64, categoryIDs []int64) error
	Recent(ctx context.Context, buyerID int64) ([]Preference, error)
	RecentCategories(ctx context.Context, buyerID int64) ([]int64, error)
}

type Option func(*tracker)

// WithClock replaces time.Now as the source of touch timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *tracker) { t.now = now }
}

type tracker struct {
	db       *sql.DB
	repo     Repository
	capacity int
	now      func() time.Time
}

func NewTracker(conn *sql.DB, repo Repository, capacity int, opts ...Option) Tracker {
	if capacity < 1 {
		capacity = config.DefaultPreferenceCapacity
	}
	t := &tracker{
		db:       conn,
		repo:     repo,
		capacity: capacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Touch marks categoryID as the buyer's most recent preference, evicting
// the least recently touched rows when a new category would exceed the
// capacity.
func (t *tracker) Touch(ctx context.Context, buyerID, categoryID int64) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "preference"),
		zap.String("method", "Touch"),
		zap.Int64("buyer_id", buyerID),
		zap.Int64("category_id", categoryID),
	)

	now := t.now().UTC()

	err := db.Transact(ctx, t.db, func(tx *sql.Tx) error {
		if err := t.repo.Lock(ctx, tx, buyerID); err != nil {
			return fmt.Errorf("lock preferences: %w", err)
		}

		refreshed, err := t.repo.Refresh(ctx, tx, buyerID, categoryID, now)
		if err != nil {
			return fmt.Errorf("refresh preference: %w", err)
		}
		if refreshed {
			log.Debug("preference refreshed")
			return nil
		}

		count, err := t.repo.Count(ctx, tx, buyerID)
		if err != nil {
			return fmt.Errorf("count preferences: %w", err)
		}

		if count >= t.capacity {
			excess := count - t.capacity + 1
			evicted, err := t.repo.EvictOldest(ctx, tx, buyerID, excess)
			if err != nil {
				return fmt.Errorf("evict preferences: %w", err)
			}
			log.Debug("preferences evicted", zap.Int64("evicted", evicted), zap.Int("count", count))
		}

		if err := t.repo.Insert(ctx, tx, buyerID, categoryID, now); err != nil {
			return fmt.Errorf("insert preference: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("touch failed", zap.Error(err))
		return err
	}
	return nil
}

// TouchAll touches every distinct category once, in order. A failure for
// one category does not stop the others; all failures are returned.
func (t *tracker) TouchAll(ctx context.Context, buyerID int64, categoryIDs []int64) error {
	var errs error
	for _, categoryID := range utils.UniqueInt64(categoryIDs) {
		errs = multierr.Append(errs, t.Touch(ctx, buyerID, categoryID))
	}
	return errs
}

func (t *tracker) Recent(ctx context.Context, buyerID int64) ([]Preference, error) {
	return t.repo.ListByBuyer(ctx, t.db, buyerID)
}

func (t *tracker) RecentCategories(ctx context.Context, buyerID int64) ([]int64, error) {
	prefs, err := t.Recent(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(prefs))
	for _, p := range prefs {
		ids = append(ids, p.CategoryID)
	}
	return ids, nil
}
