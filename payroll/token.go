package payroll

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"hoursync/metrics"
)

// CredentialStateKey is the state-store record holding the cached token.
const CredentialStateKey = "credential"

// DefaultTokenMaxAge keeps the soft expiry safely below the remote token's
// 24h lifetime.
const DefaultTokenMaxAge = 23 * time.Hour

// StateStore is the persistence surface the credential cache needs; records
// are opaque documents read and written wholesale.
type StateStore interface {
	GetState(key string) ([]byte, bool, error)
	PutState(key string, value []byte) error
}

// Credential is the persisted token record. FetchedAt is a Unix timestamp.
type Credential struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	FetchedAt   int64  `json:"fetched_at"`
}

// AuthError reports a failed credential exchange with enough remote context
// for offline diagnosis.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed with status %d: %s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type TokenSourceConfig struct {
	TokenURL   string
	Username   string
	Password   string
	MaxAge     time.Duration
	Store      StateStore
	HTTPClient httpDoer
	Metrics    metrics.Recorder
	Now        func() time.Time
}

// CachedTokenSource owns the persisted credential record. It returns the
// cached token while its age is below the soft-expiry window and performs a
// password-grant exchange otherwise. No automatic retry.
type CachedTokenSource struct {
	tokenURL   string
	username   string
	password   string
	maxAge     time.Duration
	store      StateStore
	httpClient httpDoer
	metrics    metrics.Recorder
	now        func() time.Time

	mu sync.Mutex
}

func NewTokenSource(cfg TokenSourceConfig) (*CachedTokenSource, error) {
	tokenURL := strings.TrimSpace(cfg.TokenURL)
	if tokenURL == "" {
		return nil, errors.New("token URL is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("state store is required")
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultTokenMaxAge
	}
	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &CachedTokenSource{
		tokenURL:   tokenURL,
		username:   cfg.Username,
		password:   cfg.Password,
		maxAge:     maxAge,
		store:      cfg.Store,
		httpClient: doer,
		metrics:    recorder,
		now:        now,
	}, nil
}

// Token returns a usable bearer token, refreshing the persisted credential
// when the cached one has passed the soft-expiry window.
func (s *CachedTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.cachedCredential(); ok {
		return cached.AccessToken, nil
	}
	return s.exchange(ctx)
}

func (s *CachedTokenSource) cachedCredential() (Credential, bool) {
	raw, found, err := s.store.GetState(CredentialStateKey)
	if err != nil || !found {
		return Credential{}, false
	}

	var cached Credential
	if err := json.Unmarshal(raw, &cached); err != nil {
		return Credential{}, false
	}
	if cached.AccessToken == "" || cached.FetchedAt <= 0 {
		return Credential{}, false
	}

	age := s.now().Unix() - cached.FetchedAt
	if age < 0 || age >= int64(s.maxAge.Seconds()) {
		return Credential{}, false
	}
	return cached, true
}

type tokenRequest struct {
	GrantType string `json:"grant_type"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *CachedTokenSource) exchange(ctx context.Context) (string, error) {
	payload, err := json.Marshal(tokenRequest{
		GrantType: "password",
		Username:  s.username,
		Password:  s.password,
	})
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("marshal token request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("create token request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("token request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("read token response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded tokenResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &AuthError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body)), Err: fmt.Errorf("decode token response: %w", err)}
	}
	if decoded.AccessToken == "" {
		return "", &AuthError{Status: resp.StatusCode, Body: "no access_token in response"}
	}

	tokenType := decoded.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	credential := Credential{
		AccessToken: decoded.AccessToken,
		TokenType:   tokenType,
		FetchedAt:   s.now().Unix(),
	}
	record, err := json.Marshal(credential)
	if err != nil {
		return "", &AuthError{Err: fmt.Errorf("marshal credential record: %w", err)}
	}
	if err := s.store.PutState(CredentialStateKey, record); err != nil {
		return "", &AuthError{Err: fmt.Errorf("persist credential record: %w", err)}
	}

	s.metrics.IncTokenRefreshes()
	return decoded.AccessToken, nil
}
