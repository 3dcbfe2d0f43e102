// Package auth provides bearer-token credentials for the brokerage API.
//
// The brokerage OAuth flow itself (authorization code exchange, consent UI) is
// handled outside this service; this package only turns a long-lived refresh
// token into short-lived access tokens, caching them until shortly before
// expiry. A static token source is available for development and tests.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrNoToken is returned when no credential can be produced.
var ErrNoToken = errors.New("auth: no access token available")

// refreshMargin is how long before expiry a cached token is considered stale.
const refreshMargin = 60 * time.Second

// TokenSource supplies a currently valid bearer credential per request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticSource returns a fixed token. Useful for tests and short sessions.
type StaticSource struct {
	AccessToken string
}

func (s StaticSource) Token(ctx context.Context) (string, error) {
	if s.AccessToken == "" {
		return "", ErrNoToken
	}
	return s.AccessToken, nil
}

// RefreshingSource mints access tokens from a refresh token via the brokerage
// token endpoint, caching them until shortly before expiry.
type RefreshingSource struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewRefreshingSource creates a token source backed by an OAuth refresh grant.
func NewRefreshingSource(tokenURL, clientID, clientSecret, refreshToken string) *RefreshingSource {
	return &RefreshingSource{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Token returns the cached access token, refreshing it when stale.
func (s *RefreshingSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Until(s.expires) > refreshMargin {
		return s.token, nil
	}

	token, ttl, err := s.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}

	s.token = token
	s.expires = time.Now().Add(ttl)
	return s.token, nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *RefreshingSource) refresh(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", s.refreshToken)
	form.Set("client_id", s.clientID)
	if s.clientSecret != "" {
		form.Set("client_secret", s.clientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("unmarshal token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, ErrNoToken
	}

	ttl := time.Duration(tr.ExpiresIn) * time.Second
	if ttl == 0 {
		ttl = 30 * time.Minute
	}

	return tr.AccessToken, ttl, nil
}
