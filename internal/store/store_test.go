package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func createTestBook(t *testing.T, s *store.Store, id, title, author, isbn string) *domain.Book {
	t.Helper()

	book := &domain.Book{
		ISBN:   isbn,
		Title:  title,
		Author: author,
	}
	book.ID = id
	book.InitTimestamps()

	require.NoError(t, s.Books.Create(context.Background(), id, book))
	return book
}

func createTestRating(t *testing.T, s *store.Store, id, userID, bookID string, value float64) *domain.Rating {
	t.Helper()

	rating := &domain.Rating{
		UserID: userID,
		BookID: bookID,
		Value:  value,
	}
	rating.ID = id
	rating.InitTimestamps()

	stored, err := s.UpsertRating(context.Background(), rating)
	require.NoError(t, err)
	return stored
}
