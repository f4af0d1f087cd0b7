package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
	"github.com/shelfrate/shelfrate-server/internal/recommend"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

// DefaultMinRatings is the rating-history threshold below which no upstream
// call is made. Configurable policy; one attempt per request either way.
const DefaultMinRatings = 5

// RecommendService reconciles external recommendations against the local
// catalog.
type RecommendService struct {
	store      *store.Store
	client     recommend.Recommender
	minRatings int
	logger     *slog.Logger
}

// NewRecommendService creates a new recommendation service.
// A non-positive minRatings falls back to DefaultMinRatings.
func NewRecommendService(store *store.Store, client recommend.Recommender, minRatings int, logger *slog.Logger) *RecommendService {
	if minRatings <= 0 {
		minRatings = DefaultMinRatings
	}
	return &RecommendService{
		store:      store,
		client:     client,
		minRatings: minRatings,
		logger:     logger,
	}
}

// RecommendedBook is one reconciled recommendation: the upstream fields plus
// the local catalog record when the ISBN matched. ID is null when the
// recommendation has no local counterpart; the recommendation is returned
// either way.
type RecommendedBook struct {
	recommend.Recommendation
	ID   *string      `json:"_id"`
	Book *domain.Book `json:"book,omitempty"`
}

// SpecialBooks submits the user's rating history to the recommendation
// service and matches the returned entries back to the local catalog.
//
// Users with fewer than the minimum number of ratings get an empty result
// without an upstream call. ISBNs are compared in canonical form, so
// formatting differences between the recommender and the catalog don't lose
// matches.
func (s *RecommendService) SpecialBooks(ctx context.Context, userID string) ([]*RecommendedBook, error) {
	ratings, err := s.store.RatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("special books: %w", err)
	}

	if len(ratings) < s.minRatings {
		s.logger.Debug("too few ratings for recommendations",
			"user_id", userID,
			"ratings", len(ratings),
			"required", s.minRatings,
		)
		return []*RecommendedBook{}, nil
	}

	history := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		book, err := s.store.Books.Get(ctx, r.BookID)
		if apperr.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("rating references missing book", "rating_id", r.ID, "book_id", r.BookID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("special books: %w", err)
		}
		history[book.ISBN] = r.Value
	}

	recs, err := s.client.Recommend(ctx, recommend.Request{Ratings: history})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return []*RecommendedBook{}, nil
	}

	result := make([]*RecommendedBook, 0, len(recs))
	for _, rec := range recs {
		item := &RecommendedBook{Recommendation: rec}

		// The ISBN index is keyed on the canonical form, so this lookup
		// covers both the exact and the separator-stripped match.
		book, err := s.store.Books.GetByIndex(ctx, "isbn", rec.ISBN)
		switch {
		case err == nil:
			item.ID = &book.ID
			item.Book = book
		case apperr.Is(err, apperr.ErrNotFound):
			// No local counterpart; keep the recommendation anyway.
		default:
			return nil, fmt.Errorf("special books: %w", err)
		}

		result = append(result, item)
	}

	return result, nil
}
