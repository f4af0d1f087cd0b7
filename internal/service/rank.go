package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shelfrate/shelfrate-server/internal/domain"
)

// Bayesian-average constants: sparse-sample books are pulled toward the
// neutral prior so a book with one perfect rating cannot outrank a book with
// hundreds of good ones.
const (
	priorMean      = 3.5
	priorWeight    = 10
	bestBooksLimit = 10
)

// bayesianScore computes the smoothed popularity score:
//
//	(avg*count + priorMean*priorWeight) / (count + priorWeight)
//
// A book with zero ratings scores exactly 0.
func bayesianScore(avg *float64, count int) float64 {
	if count == 0 || avg == nil {
		return 0
	}
	return (*avg*float64(count) + priorMean*priorWeight) / (float64(count) + priorWeight)
}

// Best returns the top-rated books by Bayesian-smoothed score, best first.
// Ties break ascending alphabetically by title.
func (s *BookService) Best(ctx context.Context) ([]*domain.RankedBook, error) {
	books, err := s.store.AllRatedBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("best books: %w", err)
	}

	ranked := make([]*domain.RankedBook, 0, len(books))
	for _, b := range books {
		ranked = append(ranked, &domain.RankedBook{
			RatedBook: *b,
			Score:     bayesianScore(b.AvgRating, b.RatingsCount),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return strings.ToLower(ranked[i].Title) < strings.ToLower(ranked[j].Title)
	})

	if len(ranked) > bestBooksLimit {
		ranked = ranked[:bestBooksLimit]
	}
	return ranked, nil
}
