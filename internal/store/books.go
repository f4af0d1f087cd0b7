package store

import (
	"cmp"
	"context"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	"github.com/shelfrate/shelfrate-server/internal/query"
)

// The book listing pipeline mirrors a document-store aggregation: a match
// stage over stored attributes, a lookup/join stage computing AvgRating and
// RatingsCount from the rating records, a second match stage over those
// aggregates, then sort/skip/limit. FindBooks and CountBooks are independent
// reads so callers can run them concurrently; consistency between the two is
// best-effort under concurrent writes.

// FindBooks returns the requested page of books matching the filter,
// enriched with rating aggregates, in the requested order.
// If ids is non-nil the match stage is additionally restricted to that set.
func (s *Store) FindBooks(ctx context.Context, f query.Filter, ids []string, st query.Sort, w query.Window) ([]*domain.RatedBook, error) {
	books, err := s.collectRatedBooks(ctx, f, ids)
	if err != nil {
		return nil, err
	}

	sortRatedBooks(books, st)

	skip := w.Skip()
	if skip >= len(books) {
		return []*domain.RatedBook{}, nil
	}
	end := min(skip+w.PerPage, len(books))
	return books[skip:end], nil
}

// CountBooks returns the total number of books matching the filter,
// independent of any pagination window. It runs the same pipeline as
// FindBooks up to the aggregate match stage.
func (s *Store) CountBooks(ctx context.Context, f query.Filter, ids []string) (int, error) {
	books, err := s.collectRatedBooks(ctx, f, ids)
	if err != nil {
		return 0, err
	}
	return len(books), nil
}

// GetRatedBook retrieves a single book joined with its rating aggregates.
func (s *Store) GetRatedBook(ctx context.Context, bookID string) (*domain.RatedBook, error) {
	book, err := s.Books.Get(ctx, bookID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.RatingsByBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	return enrich(book, ratings), nil
}

// AllRatedBooks returns every book joined with its rating aggregates,
// unfiltered and unsorted. Used by the ranking path.
func (s *Store) AllRatedBooks(ctx context.Context) ([]*domain.RatedBook, error) {
	return s.collectRatedBooks(ctx, query.Filter{}, nil)
}

// collectRatedBooks runs the match and join stages within one read
// transaction so the page observes a single Badger snapshot.
func (s *Store) collectRatedBooks(ctx context.Context, f query.Filter, ids []string) ([]*domain.RatedBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var idSet map[string]bool
	if ids != nil {
		idSet = make(map[string]bool, len(ids))
		for _, id := range ids {
			idSet[id] = true
		}
	}

	var books []*domain.RatedBook
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(bookPrefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(bookPrefix)); it.ValidForPrefix([]byte(bookPrefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			// Skip index keys.
			key := string(it.Item().Key())
			if strings.HasPrefix(key[len(bookPrefix):], "idx:") {
				continue
			}

			var book domain.Book
			err := it.Item().Value(func(val []byte) error {
				return unmarshalValue(val, &book)
			})
			if err != nil {
				return err
			}

			if !matchesBook(&book, f, idSet) {
				continue
			}

			ratings, err := ratingsByIndexLocked(txn, ratingPrefix+"idx:book:"+book.ID+":")
			if err != nil {
				return err
			}

			rated := enrich(&book, ratings)
			if !matchesAggregates(rated, f) {
				continue
			}
			books = append(books, rated)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return books, nil
}

// matchesBook is the stage-1 predicate over stored book attributes.
func matchesBook(b *domain.Book, f query.Filter, idSet map[string]bool) bool {
	if idSet != nil && !idSet[b.ID] {
		return false
	}
	if f.Title != nil && !containsFold(b.Title, *f.Title) {
		return false
	}
	if f.Author != nil && !containsFold(b.Author, *f.Author) {
		return false
	}
	if f.Publisher != nil && !containsFold(b.Publisher, *f.Publisher) {
		return false
	}
	// A missing publication year never satisfies a year bound.
	if f.MinYear != nil && (b.Year == nil || *b.Year < *f.MinYear) {
		return false
	}
	if f.MaxYear != nil && (b.Year == nil || *b.Year > *f.MaxYear) {
		return false
	}
	return true
}

// matchesAggregates is the stage-2 predicate over computed rating data.
// It necessarily runs after the join.
func matchesAggregates(b *domain.RatedBook, f query.Filter) bool {
	if f.MinAvgRating != nil && (b.AvgRating == nil || *b.AvgRating < *f.MinAvgRating) {
		return false
	}
	if f.MaxAvgRating != nil && (b.AvgRating == nil || *b.AvgRating > *f.MaxAvgRating) {
		return false
	}
	if f.IsRated != nil && *f.IsRated != b.HasRatings() {
		return false
	}
	return true
}

// enrich joins a book with its ratings, computing the aggregate view fields.
// AvgRating stays nil for zero ratings; it must never be reported as 0.
func enrich(book *domain.Book, ratings []*domain.Rating) *domain.RatedBook {
	rated := &domain.RatedBook{Book: *book, RatingsCount: len(ratings)}
	if len(ratings) == 0 {
		return rated
	}

	var sum float64
	for _, r := range ratings {
		sum += r.Value
	}
	avg := sum / float64(len(ratings))
	rated.AvgRating = &avg
	return rated
}

// sortRatedBooks orders books by the requested field and direction.
// Books arrive in primary-key order from the Badger scan and the sort is
// stable, so ties keep "_id" ordering.
func sortRatedBooks(books []*domain.RatedBook, st query.Sort) {
	desc := st.Order == query.OrderDesc

	sort.SliceStable(books, func(i, j int) bool {
		c := compareBooks(books[i], books[j], st.Field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compareBooks(a, b *domain.RatedBook, field string) int {
	switch field {
	case "bookTitle":
		return compareFold(a.Title, b.Title)
	case "bookAuthor":
		return compareFold(a.Author, b.Author)
	case "publisher":
		return compareFold(a.Publisher, b.Publisher)
	case "isbn":
		return cmp.Compare(a.ISBN, b.ISBN)
	case "yearOfPublication":
		return comparePtr(a.Year, b.Year)
	case "avgRating":
		return comparePtr(a.AvgRating, b.AvgRating)
	case "createdAt":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

// comparePtr orders nil before any value, matching how document stores sort
// missing fields first in ascending order.
func comparePtr[T cmp.Ordered](a, b *T) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(*a, *b)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

// ratingsByIndexLocked is ratingsByIndex running inside an already-open
// transaction, so the join shares the listing's snapshot.
func ratingsByIndexLocked(txn *badger.Txn, prefix string) ([]*domain.Rating, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)

	it := txn.NewIterator(opts)
	defer it.Close()

	var ratings []*domain.Rating
	for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
		var id string
		err := it.Item().Value(func(val []byte) error {
			id = string(val)
			return nil
		})
		if err != nil {
			return nil, err
		}

		var rating domain.Rating
		if err := getLocked(txn, ratingKey(id), &rating); err != nil {
			return nil, err
		}
		ratings = append(ratings, &rating)
	}

	return ratings, nil
}
