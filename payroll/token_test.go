package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type memStore struct {
	data map[string][]byte
}

func (m *memStore) GetState(key string) ([]byte, bool, error) {
	value, found := m.data[key]
	return value, found, nil
}

func (m *memStore) PutState(key string, value []byte) error {
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

var tokenTestNow = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

func TestTokenSource_FreshCredentialReused(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed, _ := json.Marshal(Credential{
		AccessToken: "cached-token",
		TokenType:   "Bearer",
		FetchedAt:   tokenTestNow.Add(-1 * time.Hour).Unix(),
	})
	_ = store.PutState(CredentialStateKey, seed)

	source, err := NewTokenSource(TokenSourceConfig{
		TokenURL: "https://auth.test/connect/token",
		Username: "user",
		Password: "pass",
		Store:    store,
		HTTPClient: fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
			t.Fatalf("fresh credential must not trigger an exchange")
			return nil, nil
		}},
		Now: func() time.Time { return tokenTestNow },
	})
	if err != nil {
		t.Fatalf("new token source: %v", err)
	}

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "cached-token" {
		t.Fatalf("expected cached token, got %q", token)
	}
}

func TestTokenSource_ExpiredCredentialRefreshed(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	seed, _ := json.Marshal(Credential{
		AccessToken: "stale-token",
		TokenType:   "Bearer",
		FetchedAt:   tokenTestNow.Add(-24 * time.Hour).Unix(),
	})
	_ = store.PutState(CredentialStateKey, seed)

	exchanges := 0
	source, err := NewTokenSource(TokenSourceConfig{
		TokenURL: "https://auth.test/connect/token",
		Username: "user",
		Password: "pass",
		Store:    store,
		HTTPClient: fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
			exchanges++
			if r.Method != http.MethodPost {
				t.Fatalf("expected POST, got %s", r.Method)
			}
			var payload struct {
				GrantType string `json:"grant_type"`
				Username  string `json:"username"`
				Password  string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode exchange body: %v", err)
			}
			if payload.GrantType != "password" {
				t.Fatalf("unexpected grant type: %q", payload.GrantType)
			}
			if payload.Username != "user" || payload.Password != "pass" {
				t.Fatalf("credentials not sent")
			}
			return jsonResponse(200, map[string]string{
				"access_token": "fresh-token",
				"token_type":   "Bearer",
			}), nil
		}},
		Now: func() time.Time { return tokenTestNow },
	})
	if err != nil {
		t.Fatalf("new token source: %v", err)
	}

	token, err := source.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if token != "fresh-token" {
		t.Fatalf("expected fresh token, got %q", token)
	}
	if exchanges != 1 {
		t.Fatalf("expected exactly one exchange, got %d", exchanges)
	}

	raw, found, _ := store.GetState(CredentialStateKey)
	if !found {
		t.Fatalf("refreshed credential must be persisted")
	}
	var persisted Credential
	if err := json.Unmarshal(raw, &persisted); err != nil {
		t.Fatalf("decode persisted credential: %v", err)
	}
	if persisted.AccessToken != "fresh-token" {
		t.Fatalf("persisted credential must carry the new token, got %q", persisted.AccessToken)
	}
	if persisted.FetchedAt != tokenTestNow.Unix() {
		t.Fatalf("unexpected fetched_at: %d", persisted.FetchedAt)
	}

	// A second call within the window reuses the persisted credential.
	if _, err := source.Token(context.Background()); err != nil {
		t.Fatalf("second token: %v", err)
	}
	if exchanges != 1 {
		t.Fatalf("second call must not exchange again, got %d exchanges", exchanges)
	}
}

func TestTokenSource_ExchangeFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		respond    func(r *http.Request) (*http.Response, error)
		wantStatus int
	}{
		{
			name: "remote rejects credentials",
			respond: func(r *http.Request) (*http.Response, error) {
				return jsonResponse(401, map[string]string{"error": "invalid_grant"}), nil
			},
			wantStatus: 401,
		},
		{
			name: "missing access token in response",
			respond: func(r *http.Request) (*http.Response, error) {
				return jsonResponse(200, map[string]string{"token_type": "Bearer"}), nil
			},
			wantStatus: 200,
		},
		{
			name: "transport failure",
			respond: func(r *http.Request) (*http.Response, error) {
				return nil, fmt.Errorf("connection reset")
			},
			wantStatus: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			source, err := NewTokenSource(TokenSourceConfig{
				TokenURL:   "https://auth.test/connect/token",
				Username:   "user",
				Password:   "pass",
				Store:      &memStore{},
				HTTPClient: fakeDoer{fn: tt.respond},
				Now:        func() time.Time { return tokenTestNow },
			})
			if err != nil {
				t.Fatalf("new token source: %v", err)
			}

			_, err = source.Token(context.Background())
			if err == nil {
				t.Fatalf("expected exchange failure")
			}
			var authErr *AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %T", err)
			}
			if authErr.Status != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, authErr.Status)
			}
		})
	}
}

func TestNewTokenSource_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenSource(TokenSourceConfig{Store: &memStore{}}); err == nil {
		t.Fatalf("expected error for missing token URL")
	}
	if _, err := NewTokenSource(TokenSourceConfig{TokenURL: "https://auth.test/token"}); err == nil {
		t.Fatalf("expected error for missing store")
	}
}
