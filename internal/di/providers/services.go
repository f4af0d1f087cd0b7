package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/shelfrate/shelfrate-server/internal/config"
	"github.com/shelfrate/shelfrate-server/internal/recommend"
	"github.com/shelfrate/shelfrate-server/internal/service"
	"github.com/shelfrate/shelfrate-server/internal/validation"
)

// RecommenderHandle wraps the recommendation client. Client is nil when no
// recommender is configured.
type RecommenderHandle struct {
	Client recommend.Recommender
}

// ProvideRecommender provides the external recommendation client.
func ProvideRecommender(i do.Injector) (*RecommenderHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if cfg.Recommender.BaseURL == "" {
		log.Info("No recommender configured, recommendations disabled")
		return &RecommenderHandle{}, nil
	}

	client := recommend.New(cfg.Recommender.BaseURL, cfg.Recommender.Timeout, log)
	log.Info("Recommender client ready", "base_url", cfg.Recommender.BaseURL)

	return &RecommenderHandle{Client: client}, nil
}

// ProvideBookService provides the book catalog service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewBookService(storeHandle.Store, log), nil
}

// ProvideRatingService provides the rating service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validate := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewRatingService(storeHandle.Store, validate, log), nil
}

// ProvideRecommendService provides the recommendation reconciliation service.
// Returns nil when no recommender is configured; the API layer answers 503
// for the recommendations endpoint in that case.
func ProvideRecommendService(i do.Injector) (*service.RecommendService, error) {
	recHandle := do.MustInvoke[*RecommenderHandle](i)
	if recHandle.Client == nil {
		return nil, nil
	}

	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewRecommendService(storeHandle.Store, recHandle.Client, cfg.Recommender.MinRatings, log), nil
}
