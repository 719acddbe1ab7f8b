package product

import (
	"context"

	"cartify/internal/logger"

	"go.uber.org/zap"
)

// PreferenceReader yields a buyer's preferred categories, most recent first.
type PreferenceReader interface {
	RecentCategories(ctx context.Context, buyerID int64) ([]int64, error)
}

type Service interface {
	Explore(ctx context.Context, buyerID int64) ([]*Product, error)
}

type service struct {
	repo  Repository
	prefs PreferenceReader
	limit int
}

func NewService(repo Repository, prefs PreferenceReader, limit int) Service {
	if limit <= 0 {
		limit = 20
	}
	return &service{repo: repo, prefs: prefs, limit: limit}
}

// Explore returns products from the buyer's recently purchased categories.
func (s *service) Explore(ctx context.Context, buyerID int64) ([]*Product, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Explore"),
		zap.Int64("buyer_id", buyerID),
	)

	categories, err := s.prefs.RecentCategories(ctx, buyerID)
	if err != nil {
		log.Error("failed to load preferences", zap.Error(err))
		return nil, err
	}
	if len(categories) == 0 {
		return []*Product{}, nil
	}

	products, err := s.repo.ListByCategories(ctx, categories, s.limit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []*Product{}
	}

	log.Debug("explore feed built", zap.Int("count", len(products)))
	return products, nil
}
