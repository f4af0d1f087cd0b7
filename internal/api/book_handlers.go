package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shelfrate/shelfrate-server/internal/http/response"
	"github.com/shelfrate/shelfrate-server/internal/query"
	"github.com/shelfrate/shelfrate-server/internal/service"
)

// handleListBooks returns a filtered, sorted page of the catalog.
// GET /api/v1/books
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()

	opts := service.ListOptions{
		Filter:  query.ParseFilter(values),
		Sort:    query.ParseSort(values),
		Window:  query.ParsePagination(values),
		BookIDs: splitIDs(values.Get("ids")),
	}

	page, err := s.bookService.List(r.Context(), opts)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, page, s.logger)
}

// handleGetBook returns a single book with its rating aggregates.
// GET /api/v1/books/{id}
func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "id")
	if bookID == "" {
		response.BadRequest(w, "Book ID is required", s.logger)
		return
	}

	book, err := s.bookService.Get(r.Context(), bookID)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}

// handleBestBooks returns the top-rated books by smoothed score.
// GET /api/v1/books/best
func (s *Server) handleBestBooks(w http.ResponseWriter, r *http.Request) {
	ranked, err := s.bookService.Best(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, ranked, s.logger)
}

// handleRecentBooks returns the caller's most recently rated books.
// GET /api/v1/books/recent
func (s *Server) handleRecentBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.bookService.Recent(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, books, s.logger)
}

// handleSpecialBooks returns personalized recommendations reconciled with
// the catalog.
// GET /api/v1/books/special
func (s *Server) handleSpecialBooks(w http.ResponseWriter, r *http.Request) {
	if s.recommendService == nil {
		response.Error(w, http.StatusServiceUnavailable, "Recommendations are not configured", s.logger)
		return
	}

	recs, err := s.recommendService.SpecialBooks(r.Context(), getUserID(r.Context()))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, recs, s.logger)
}

// splitIDs parses the comma-separated explicit book-ID restriction.
func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
