// Package api provides the HTTP API server and handlers for the ShelfRate
// application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfrate/shelfrate-server/internal/service"
	"github.com/shelfrate/shelfrate-server/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store            *store.Store
	bookService      *service.BookService
	ratingService    *service.RatingService
	recommendService *service.RecommendService
	router           *chi.Mux
	logger           *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, bookService *service.BookService, ratingService *service.RatingService, recommendService *service.RecommendService, logger *slog.Logger) *Server {
	s := &Server{
		store:            store,
		bookService:      bookService,
		ratingService:    ratingService,
		recommendService: recommendService,
		router:           chi.NewRouter(),
		logger:           logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID"},
		MaxAge:         300,
	}))
	s.router.Use(s.withIdentity)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Get("/best", s.handleBestBooks)

			r.Group(func(r chi.Router) {
				r.Use(s.requireIdentity)
				r.Get("/special", s.handleSpecialBooks)
				r.Get("/recent", s.handleRecentBooks)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBook)

				r.Group(func(r chi.Router) {
					r.Use(s.requireIdentity)
					r.Get("/rating", s.handleGetRating)
					r.Put("/rating", s.handleUpsertRating)
					r.Delete("/rating", s.handleDeleteRating)
				})
			})
		})

		r.Route("/ratings", func(r chi.Router) {
			r.Use(s.requireIdentity)
			r.Get("/", s.handleListRatings)
		})
	})
}
