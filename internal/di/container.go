// Package di provides dependency injection configuration for the ShelfRate
// server.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/shelfrate/shelfrate-server/internal/config"
	"github.com/shelfrate/shelfrate-server/internal/di/providers"
	"github.com/shelfrate/shelfrate-server/internal/service"
	"github.com/shelfrate/shelfrate-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)

	// External collaborators
	do.Provide(injector, providers.ProvideRecommender)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideRatingService)
	do.Provide(injector, providers.ProvideRecommendService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns them for lifecycle
// management. This triggers lazy initialization of the whole graph.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*slog.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.RecommenderHandle](injector)
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.RatingService](injector)
	_ = do.MustInvoke[*service.RecommendService](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
