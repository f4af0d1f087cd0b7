package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	"github.com/shelfrate/shelfrate-server/internal/query"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

func intPtr(n int) *int           { return &n }
func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool        { return &b }
func defaultWindow() query.Window { return query.Window{Page: 1, PerPage: 10} }
func defaultSort() query.Sort     { return query.Sort{Field: "_id", Order: query.OrderAsc} }

// seedCatalog creates three books: one unrated, one rated twice, one rated once.
func seedCatalog(t *testing.T, s *store.Store) {
	t.Helper()

	dune := &domain.Book{ISBN: "0441013597", Title: "Dune", Author: "Frank Herbert", Year: intPtr(1965), Publisher: "Ace"}
	dune.ID = "book-001"
	dune.InitTimestamps()
	require.NoError(t, s.Books.Create(context.Background(), dune.ID, dune))

	emma := &domain.Book{ISBN: "0-19-853453-1", Title: "Emma", Author: "Jane Austen", Year: intPtr(1815), Publisher: "Oxford"}
	emma.ID = "book-002"
	emma.InitTimestamps()
	require.NoError(t, s.Books.Create(context.Background(), emma.ID, emma))

	hobbit := &domain.Book{ISBN: "0345339681", Title: "The Hobbit", Author: "J.R.R. Tolkien", Year: intPtr(1937), Publisher: "Ballantine"}
	hobbit.ID = "book-003"
	hobbit.InitTimestamps()
	require.NoError(t, s.Books.Create(context.Background(), hobbit.ID, hobbit))

	createTestRating(t, s, "rating-001", "user-1", "book-002", 8)
	createTestRating(t, s, "rating-002", "user-2", "book-002", 4)
	createTestRating(t, s, "rating-003", "user-1", "book-003", 10)
}

func TestBooks_ISBNIndex_CanonicalLookup(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedCatalog(t, s)

	// Stored hyphenated, looked up canonical.
	book, err := s.Books.GetByIndex(ctx, "isbn", "0198534531")
	require.NoError(t, err)
	assert.Equal(t, "book-002", book.ID)

	// Stored canonical, looked up hyphenated.
	book, err = s.Books.GetByIndex(ctx, "isbn", "0-441-01359-7")
	require.NoError(t, err)
	assert.Equal(t, "book-001", book.ID)

	_, err = s.Books.GetByIndex(ctx, "isbn", "9999999999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindBooks_JoinComputesAverage(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)

	books, err := s.FindBooks(context.Background(), query.Filter{}, nil, defaultSort(), defaultWindow())
	require.NoError(t, err)
	require.Len(t, books, 3)

	byID := make(map[string]*domain.RatedBook)
	for _, b := range books {
		byID[b.ID] = b
	}

	// Zero ratings: AvgRating absent, never zero.
	assert.Nil(t, byID["book-001"].AvgRating)
	assert.Equal(t, 0, byID["book-001"].RatingsCount)

	require.NotNil(t, byID["book-002"].AvgRating)
	assert.InDelta(t, 6.0, *byID["book-002"].AvgRating, 1e-9)
	assert.Equal(t, 2, byID["book-002"].RatingsCount)

	require.NotNil(t, byID["book-003"].AvgRating)
	assert.InDelta(t, 10.0, *byID["book-003"].AvgRating, 1e-9)
}

func TestFindBooks_AttributeFilters(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  query.Filter
		wantIDs []string
	}{
		{"title substring is case-insensitive", query.Filter{Title: strPtr("HOBBIT")}, []string{"book-003"}},
		{"author substring", query.Filter{Author: strPtr("austen")}, []string{"book-002"}},
		{"publisher substring", query.Filter{Publisher: strPtr("ace")}, []string{"book-001"}},
		{"year range inclusive", query.Filter{MinYear: intPtr(1937), MaxYear: intPtr(1965)}, []string{"book-001", "book-003"}},
		{"min year only", query.Filter{MinYear: intPtr(1900)}, []string{"book-001", "book-003"}},
		{"no match", query.Filter{Title: strPtr("zzz")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := s.FindBooks(ctx, tt.filter, nil, defaultSort(), defaultWindow())
			require.NoError(t, err)

			var ids []string
			for _, b := range books {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFindBooks_AggregateFilters(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  query.Filter
		wantIDs []string
	}{
		{"min avg excludes unrated", query.Filter{MinAvgRating: floatPtr(5)}, []string{"book-002", "book-003"}},
		{"max avg", query.Filter{MaxAvgRating: floatPtr(7)}, []string{"book-002"}},
		{"rated only", query.Filter{IsRated: boolPtr(true)}, []string{"book-002", "book-003"}},
		{"unrated only", query.Filter{IsRated: boolPtr(false)}, []string{"book-001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := s.FindBooks(ctx, tt.filter, nil, defaultSort(), defaultWindow())
			require.NoError(t, err)

			var ids []string
			for _, b := range books {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFindBooks_ExplicitIDSet(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)

	books, err := s.FindBooks(context.Background(), query.Filter{},
		[]string{"book-001", "book-003"}, defaultSort(), defaultWindow())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "book-001", books[0].ID)
	assert.Equal(t, "book-003", books[1].ID)
}

func TestFindBooks_Sorting(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	tests := []struct {
		name    string
		sort    query.Sort
		wantIDs []string
	}{
		{"title asc", query.Sort{Field: "bookTitle", Order: query.OrderAsc}, []string{"book-001", "book-002", "book-003"}},
		{"title desc", query.Sort{Field: "bookTitle", Order: query.OrderDesc}, []string{"book-003", "book-002", "book-001"}},
		{"year asc", query.Sort{Field: "yearOfPublication", Order: query.OrderAsc}, []string{"book-002", "book-003", "book-001"}},
		{"avg rating desc, unrated last", query.Sort{Field: "avgRating", Order: query.OrderDesc}, []string{"book-003", "book-002", "book-001"}},
		{"default id asc", defaultSort(), []string{"book-001", "book-002", "book-003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := s.FindBooks(ctx, query.Filter{}, nil, tt.sort, defaultWindow())
			require.NoError(t, err)

			var ids []string
			for _, b := range books {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFindBooks_Window(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	page1, err := s.FindBooks(ctx, query.Filter{}, nil, defaultSort(), query.Window{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "book-001", page1[0].ID)

	page2, err := s.FindBooks(ctx, query.Filter{}, nil, defaultSort(), query.Window{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "book-003", page2[0].ID)

	beyond, err := s.FindBooks(ctx, query.Filter{}, nil, defaultSort(), query.Window{Page: 5, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond)
}

func TestCountBooks_IndependentOfWindow(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	total, err := s.CountBooks(ctx, query.Filter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	rated, err := s.CountBooks(ctx, query.Filter{IsRated: boolPtr(true)}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, rated)
}

func TestGetRatedBook(t *testing.T) {
	s := setupTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	book, err := s.GetRatedBook(ctx, "book-002")
	require.NoError(t, err)
	require.NotNil(t, book.AvgRating)
	assert.InDelta(t, 6.0, *book.AvgRating, 1e-9)
	assert.Equal(t, 2, book.RatingsCount)

	unrated, err := s.GetRatedBook(ctx, "book-001")
	require.NoError(t, err)
	assert.Nil(t, unrated.AvgRating)

	_, err = s.GetRatedBook(ctx, "book-999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
