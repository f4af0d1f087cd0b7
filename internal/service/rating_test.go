package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
	"github.com/shelfrate/shelfrate-server/internal/service"
	"github.com/shelfrate/shelfrate-server/internal/validation"
)

func TestRatingUpsert(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	createTestBook(t, s, "book-001", "Dune", "0441013597")

	rating, err := svc.Upsert(context.Background(), "user-1", "book-001", service.RatingInput{
		Rating:  8,
		Comment: "great read",
	})
	require.NoError(t, err)
	assert.Equal(t, 8.0, rating.Value)
	assert.Equal(t, "great read", rating.Comment)
	assert.NotEmpty(t, rating.ID)

	book, err := s.Books.Get(context.Background(), "book-001")
	require.NoError(t, err)
	assert.Equal(t, []string{rating.ID}, book.Ratings)
}

func TestRatingUpsert_OverwritesKeepingIdentity(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	createTestBook(t, s, "book-001", "Dune", "0441013597")

	first, err := svc.Upsert(context.Background(), "user-1", "book-001", service.RatingInput{Rating: 4})
	require.NoError(t, err)

	second, err := svc.Upsert(context.Background(), "user-1", "book-001", service.RatingInput{Rating: 9})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 9.0, second.Value)

	book, err := s.Books.Get(context.Background(), "book-001")
	require.NoError(t, err)
	assert.Len(t, book.Ratings, 1)
}

func TestRatingUpsert_Validation(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	createTestBook(t, s, "book-001", "Dune", "0441013597")

	tests := []struct {
		name   string
		userID string
		bookID string
		input  service.RatingInput
		code   error
	}{
		{"missing identity", "", "book-001", service.RatingInput{Rating: 5}, apperr.ErrUnauthorized},
		{"bad book id", "user-1", "not-an-id!", service.RatingInput{Rating: 5}, apperr.ErrValidation},
		{"rating too low", "user-1", "book-001", service.RatingInput{Rating: 0.5}, apperr.ErrValidation},
		{"rating too high", "user-1", "book-001", service.RatingInput{Rating: 11}, apperr.ErrValidation},
		{"rating missing", "user-1", "book-001", service.RatingInput{}, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upsert(context.Background(), tt.userID, tt.bookID, tt.input)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.code))
		})
	}
}

func TestRatingUpsert_BookMissing(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	_, err := svc.Upsert(context.Background(), "user-1", "book-001", service.RatingInput{Rating: 5})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestRatingDelete(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	createTestBook(t, s, "book-001", "Dune", "0441013597")
	createTestRating(t, s, "rating-001", "user-1", "book-001", 7)

	deleted, err := svc.Delete(context.Background(), "user-1", "book-001")
	require.NoError(t, err)
	assert.Equal(t, "rating-001", deleted.ID)

	book, err := s.Books.Get(context.Background(), "book-001")
	require.NoError(t, err)
	assert.Empty(t, book.Ratings)

	_, err = svc.Delete(context.Background(), "user-1", "book-001")
	assert.True(t, apperr.Is(err, apperr.ErrNotFound))
}

func TestRatingListByUser_MergesBooks(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	createTestBook(t, s, "book-001", "Dune", "0441013597")
	createTestBook(t, s, "book-002", "Emma", "0156028352")
	createTestRating(t, s, "rating-001", "user-1", "book-001", 7)
	createTestRating(t, s, "rating-002", "user-1", "book-002", 9)
	createTestRating(t, s, "rating-003", "user-2", "book-001", 3)

	list, err := svc.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)

	for _, ur := range list {
		require.NotNil(t, ur.Book)
		assert.Equal(t, ur.BookID, ur.Book.ID)
	}
}

func TestRatingListByUser_MissingBookKeepsRating(t *testing.T) {
	s := setupTestStore(t)
	svc := service.NewRatingService(s, validation.New(), testLogger())

	createTestBook(t, s, "book-001", "Dune", "0441013597")
	createTestRating(t, s, "rating-001", "user-1", "book-001", 7)

	require.NoError(t, s.Books.Delete(context.Background(), "book-001"))

	list, err := svc.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Book)
	assert.Equal(t, "rating-001", list[0].ID)
}
