// Package recommend talks to the external recommendation service.
package recommend

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	apperr "github.com/shelfrate/shelfrate-server/internal/errors"
)

const (
	// One attempt per request, no retries; the limiter only keeps us polite.
	defaultRPS   = 5
	defaultBurst = 5

	// DefaultTimeout bounds the single round-trip to the recommender.
	DefaultTimeout = 10 * time.Second

	recommendationsPath = "/api/recommendations"
)

// Request is the payload sent to the recommendation service: the user's
// rating history keyed by ISBN, plus optional demographic context.
type Request struct {
	Ratings map[string]float64 `json:"ratings"`
	Age     int                `json:"age,omitempty"`
	City    string             `json:"city,omitempty"`
}

// Recommendation is one entry returned by the recommendation service.
// Only ISBN is interpreted locally; every other field the service returns is
// preserved verbatim in Extra and passed through to clients.
type Recommendation struct {
	ISBN  string         `json:"ISBN"`
	Extra map[string]any `json:",unknown"`
}

// Recommender produces catalog recommendations from a user's rating history.
// Implementations must make exactly one attempt and surface any failure as an
// upstream dependency error.
type Recommender interface {
	Recommend(ctx context.Context, req Request) ([]Recommendation, error)
}

// Client is the HTTP Recommender implementation.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	baseURL string
}

// New creates a recommendation client for the given base URL.
// A zero timeout falls back to DefaultTimeout.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(defaultRPS), defaultBurst),
		logger:  logger,
		baseURL: baseURL,
	}
}

// Recommend submits the rating history and returns the service's
// recommendations. Any transport failure or non-2xx status is an upstream
// dependency error; it is never retried and never degraded to an empty
// result.
func (c *Client) Recommend(ctx context.Context, req Request) ([]Recommendation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+recommendationsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("recommendation request",
		"url", c.baseURL+recommendationsPath,
		"ratings", len(req.Ratings),
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperr.ErrUpstream.WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.ErrUpstream.WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperr.Upstreamf("recommendation service returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, apperr.ErrUpstream.WithCause(fmt.Errorf("decode response: %w", err))
	}

	return parsed.Recommendations, nil
}
