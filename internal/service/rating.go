package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shelfrate/shelfrate-server/internal/domain"
	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
	"github.com/shelfrate/shelfrate-server/internal/id"
	"github.com/shelfrate/shelfrate-server/internal/store"
	"github.com/shelfrate/shelfrate-server/internal/validation"
)

// RatingService maintains the one-rating-per-(user,book) invariant.
type RatingService struct {
	store    *store.Store
	validate *validation.Validator
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(store *store.Store, validate *validation.Validator, logger *slog.Logger) *RatingService {
	return &RatingService{
		store:    store,
		validate: validate,
		logger:   logger,
	}
}

// RatingInput is the validated mutation body for a rating.
type RatingInput struct {
	Rating  float64 `json:"rating" validate:"required,min=1,max=10"`
	Comment string  `json:"comment" validate:"omitempty,max=500"`
}

// Upsert creates or overwrites the caller's rating of a book.
// An existing rating for the (user, book) pair keeps its identity and gets
// its value and comment replaced.
func (s *RatingService) Upsert(ctx context.Context, userID, bookID string, in RatingInput) (*domain.Rating, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("user identity required")
	}
	if !id.IsValid("book", bookID) {
		return nil, apperr.Validationf("invalid book id %q", bookID)
	}
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}

	newID, err := id.Generate("rating")
	if err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	rating := &domain.Rating{
		UserID:  userID,
		BookID:  bookID,
		Value:   in.Rating,
		Comment: in.Comment,
	}
	rating.ID = newID
	rating.InitTimestamps()

	stored, err := s.store.UpsertRating(ctx, rating)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("rating upserted",
		"rating_id", stored.ID,
		"user_id", userID,
		"book_id", bookID,
	)
	return stored, nil
}

// Delete removes the caller's rating of a book.
// Returns a not-found error if no rating exists for the pair.
func (s *RatingService) Delete(ctx context.Context, userID, bookID string) (*domain.Rating, error) {
	if userID == "" {
		return nil, apperr.Unauthorized("user identity required")
	}
	if !id.IsValid("book", bookID) {
		return nil, apperr.Validationf("invalid book id %q", bookID)
	}
	return s.store.DeleteRating(ctx, userID, bookID)
}

// Get retrieves the caller's rating of one book.
func (s *RatingService) Get(ctx context.Context, userID, bookID string) (*domain.Rating, error) {
	if !id.IsValid("book", bookID) {
		return nil, apperr.Validationf("invalid book id %q", bookID)
	}
	return s.store.GetRating(ctx, userID, bookID)
}

// UserRating is a rating merged with its target book.
type UserRating struct {
	domain.Rating
	Book *domain.Book `json:"book,omitempty"`
}

// ListByUser returns all of the user's ratings, each merged with its book.
// A rating whose book has vanished is still returned, without the book.
func (s *RatingService) ListByUser(ctx context.Context, userID string) ([]*UserRating, error) {
	ratings, err := s.store.RatingsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}

	result := make([]*UserRating, 0, len(ratings))
	for _, r := range ratings {
		merged := &UserRating{Rating: *r}

		book, err := s.store.Books.Get(ctx, r.BookID)
		switch {
		case err == nil:
			merged.Book = book
		case apperr.Is(err, apperr.ErrNotFound):
			s.logger.Warn("rating references missing book", "rating_id", r.ID, "book_id", r.BookID)
		default:
			return nil, fmt.Errorf("list ratings: %w", err)
		}

		result = append(result, merged)
	}

	return result, nil
}
