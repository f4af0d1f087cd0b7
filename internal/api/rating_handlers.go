package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfrate/shelfrate-server/internal/http/response"
	"github.com/shelfrate/shelfrate-server/internal/service"
)

// handleUpsertRating creates or replaces the caller's rating of a book.
// PUT /api/v1/books/{id}/rating
func (s *Server) handleUpsertRating(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	var in service.RatingInput
	if err := json.UnmarshalRead(r.Body, &in); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	rating, err := s.ratingService.Upsert(r.Context(), getUserID(r.Context()), bookID, in)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, rating, s.logger)
}

// handleGetRating returns the caller's rating of a book.
// GET /api/v1/books/{id}/rating
func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	rating, err := s.ratingService.Get(r.Context(), getUserID(r.Context()), bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, rating, s.logger)
}

// handleDeleteRating removes the caller's rating of a book.
// DELETE /api/v1/books/{id}/rating
func (s *Server) handleDeleteRating(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	if _, err := s.ratingService.Delete(r.Context(), getUserID(r.Context()), bookID); err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.NoContent(w)
}

// handleListRatings returns all of the caller's ratings with their books.
// GET /api/v1/ratings
func (s *Server) handleListRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := s.ratingService.ListByUser(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ratings, s.logger)
}
