package azurechat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenConfig configures the client-credentials exchange. When StaticToken
// is set, the exchange is skipped entirely and the static bearer is used.
type TokenConfig struct {
	TokenURL     string
	Scope        string
	ClientID     string
	ClientSecret string
	StaticToken  string

	// CacheToken enables reuse of a fetched token until shortly before its
	// expiry. Off by default: the safe baseline is one fetch per call.
	CacheToken bool
}

// tokenSource fetches bearer tokens for the chat endpoint.
type tokenSource struct {
	cfg        TokenConfig
	httpClient *http.Client

	mu      sync.RWMutex
	cached  string
	expires time.Time
}

func newTokenSource(cfg TokenConfig, httpClient *http.Client) *tokenSource {
	return &tokenSource{cfg: cfg, httpClient: httpClient}
}

// Token returns a bearer token for the next request.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	if s.cfg.StaticToken != "" {
		return s.cfg.StaticToken, nil
	}

	if s.cfg.CacheToken {
		s.mu.RLock()
		if s.cached != "" && time.Now().Before(s.expires) {
			tok := s.cached
			s.mu.RUnlock()
			return tok, nil
		}
		s.mu.RUnlock()
	}

	tok, expiresIn, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}

	if s.cfg.CacheToken && expiresIn > 0 {
		s.mu.Lock()
		s.cached = tok
		// refresh a minute early so in-flight requests never carry a token
		// that expires mid-call
		s.expires = time.Now().Add(time.Duration(expiresIn)*time.Second - time.Minute)
		s.mu.Unlock()
	}

	return tok, nil
}

// fetch performs one grant_type=client_credentials exchange.
func (s *tokenSource) fetch(ctx context.Context) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", s.cfg.Scope)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, &ChatCompletionError{
			Message:    fmt.Sprintf("token endpoint returned %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			RawBody:    body,
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, fmt.Errorf("failed to parse token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("token response carried no access_token")
	}

	return tr.AccessToken, tr.ExpiresIn, nil
}
