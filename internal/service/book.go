// Package service provides the business logic layer for catalog listings,
// ratings, and recommendations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
	"github.com/shelfrate/shelfrate-server/internal/id"
	"github.com/shelfrate/shelfrate-server/internal/query"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

// recentBooksLimit caps how many recently rated books are returned.
const recentBooksLimit = 10

// BookService orchestrates catalog queries.
type BookService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(store *store.Store, logger *slog.Logger) *BookService {
	return &BookService{
		store:  store,
		logger: logger,
	}
}

// ListOptions describes one book listing request.
type ListOptions struct {
	Filter query.Filter
	Sort   query.Sort
	Window query.Window
	// BookIDs optionally restricts the listing to an explicit set of books.
	BookIDs []string
}

// BookPage is one page of enriched books plus pagination metadata.
type BookPage struct {
	Data []*domain.RatedBook `json:"data"`
	query.Meta
}

// List returns a page of books matching the filter, enriched with rating
// aggregates, together with the total matching count.
//
// Count and page fetch are independent reads and run concurrently; they are
// best-effort consistent under concurrent writes. Malformed explicit book IDs
// fail fast before any store access.
func (s *BookService) List(ctx context.Context, opts ListOptions) (*BookPage, error) {
	for _, bookID := range opts.BookIDs {
		if !id.IsValid("book", bookID) {
			return nil, apperr.Validationf("invalid book id %q", bookID)
		}
	}

	if opts.Window.Page < 1 {
		opts.Window.Page = query.DefaultPage
	}
	if opts.Window.PerPage < 1 {
		opts.Window.PerPage = query.DefaultPerPage
	}
	if opts.Sort.Field == "" {
		opts.Sort = query.Sort{Field: "_id", Order: query.OrderAsc}
	}

	var (
		total int
		books []*domain.RatedBook
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.store.CountBooks(gctx, opts.Filter, opts.BookIDs)
		return err
	})
	g.Go(func() error {
		var err error
		books, err = s.store.FindBooks(gctx, opts.Filter, opts.BookIDs, opts.Sort, opts.Window)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	if books == nil {
		books = []*domain.RatedBook{}
	}

	return &BookPage{
		Data: books,
		Meta: query.NewMeta(total, opts.Window.PerPage, opts.Window.Page),
	}, nil
}

// Get retrieves a single book joined with its rating aggregates.
func (s *BookService) Get(ctx context.Context, bookID string) (*domain.RatedBook, error) {
	if !id.IsValid("book", bookID) {
		return nil, apperr.Validationf("invalid book id %q", bookID)
	}
	return s.store.GetRatedBook(ctx, bookID)
}

// Recent returns the books the user rated most recently, newest rating first.
func (s *BookService) Recent(ctx context.Context, userID string) ([]*domain.RatedBook, error) {
	ratings, err := s.store.RatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("recent books: %w", err)
	}

	sort.SliceStable(ratings, func(i, j int) bool {
		return ratings[i].CreatedAt.After(ratings[j].CreatedAt)
	})
	if len(ratings) > recentBooksLimit {
		ratings = ratings[:recentBooksLimit]
	}

	books := make([]*domain.RatedBook, 0, len(ratings))
	for _, r := range ratings {
		book, err := s.store.GetRatedBook(ctx, r.BookID)
		if apperr.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("rating references missing book", "rating_id", r.ID, "book_id", r.BookID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("recent books: %w", err)
		}
		books = append(books, book)
	}

	return books, nil
}
