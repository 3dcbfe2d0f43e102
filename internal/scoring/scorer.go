package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// Request carries one candidate to the ranking service.
type Request struct {
	Kind       string             `json:"kind"` // "spread" or "atm"
	Underlying string             `json:"underlying"`
	Spot       float64            `json:"spot"`
	Summary    string             `json:"summary"`
	Metrics    map[string]float64 `json:"metrics"`
	Context    string             `json:"context,omitempty"`
	Model      string             `json:"model,omitempty"` // Requested model identifier
}

// Result is the service's ranking for one candidate.
type Result struct {
	Score      float64 `json:"score"`      // 0-100
	Confidence float64 `json:"confidence"` // 0-100
	Rationale  string  `json:"rationale"`
	Model      string  `json:"model"` // Model that produced the score
}

// Scorer ranks a single candidate. Implementations must return an error on
// failure rather than a zero score; callers record failures explicitly.
type Scorer interface {
	Score(ctx context.Context, req Request) (Result, error)
}

// ScorerFunc is a function adapter for Scorer.
type ScorerFunc func(context.Context, Request) (Result, error)

func (f ScorerFunc) Score(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// HTTPScorer calls the hosted ranking service over HTTP.
type HTTPScorer struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// HTTPScorerOption configures an HTTPScorer.
type HTTPScorerOption func(*HTTPScorer)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPScorerOption {
	return func(s *HTTPScorer) {
		s.httpClient.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPScorerOption {
	return func(s *HTTPScorer) {
		s.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) HTTPScorerOption {
	return func(s *HTTPScorer) {
		s.httpClient = hc
	}
}

// NewHTTPScorer creates a scorer client for the given endpoint. The breaker
// opens after five consecutive failures and probes again after 30 seconds, so
// a dead service costs one failed call per candidate at most briefly.
func NewHTTPScorer(url, apiKey, model string, opts ...HTTPScorerOption) *HTTPScorer {
	s := &HTTPScorer{
		url:    url,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 45 * time.Second,
		},
		logger: slog.Default(),
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "scoring-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score submits one candidate for ranking.
func (s *HTTPScorer) Score(ctx context.Context, req Request) (Result, error) {
	if req.Model == "" {
		req.Model = s.model
	}

	res, err := s.breaker.Execute(func() (any, error) {
		return s.score(ctx, req)
	})
	if err != nil {
		return Result{}, err
	}

	return res.(Result), nil
}

func (s *HTTPScorer) score(ctx context.Context, req Request) (Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("scoring service returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return Result{}, fmt.Errorf("unmarshal result: %w", err)
	}

	if result.Score < 0 || result.Score > 100 {
		return Result{}, fmt.Errorf("score %g out of range", result.Score)
	}

	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
