package payroll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

type fakeDoer struct {
	fn func(*http.Request) (*http.Response, error)
}

func (f fakeDoer) Do(req *http.Request) (*http.Response, error) {
	return f.fn(req)
}

type staticTokens struct{}

func (staticTokens) Token(ctx context.Context) (string, error) {
	return "test-token", nil
}

func jsonResponse(status int, payload any) *http.Response {
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     make(http.Header),
	}
}

func TestClient_KnownEndpointsAndHeaders(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Fatalf("unexpected Accept header: %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "hoursync-test" {
			t.Fatalf("unexpected User-Agent header: %q", got)
		}

		key := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		switch key {
		case "GET /api/payroll/payroll-1":
			return jsonResponse(200, map[string]string{"id": "payroll-1"}), nil
		case "POST /api/payroll":
			if r.Header.Get("Content-Type") != "application/json" {
				t.Fatalf("missing Content-Type on body request")
			}
			return jsonResponse(200, map[string]string{"id": "payroll-1"}), nil
		case "GET /api/calculations/calc-1":
			return jsonResponse(200, map[string]string{"id": "calc-1"}), nil
		case "POST /api/calculations/update-from-employment?save=true&updateRows=true":
			return jsonResponse(200, map[string]string{"id": "calc-1"}), nil
		case "POST /api/payroll/payroll-1/add-calc?ids=calc-1":
			return jsonResponse(200, map[string]string{"id": "payroll-1"}), nil
		default:
			return nil, fmt.Errorf("unexpected request %s", key)
		}
	}}

	client, err := NewClient(ClientConfig{
		BaseURL:    "https://payroll.test/api",
		Tokens:     staticTokens{},
		UserAgent:  "hoursync-test",
		HTTPClient: doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	ctx := context.Background()
	calls := []func() (Response, error){
		func() (Response, error) { return client.GetPayroll(ctx, "payroll-1") },
		func() (Response, error) { return client.CreatePayroll(ctx, map[string]string{"status": "Draft"}) },
		func() (Response, error) { return client.GetCalculation(ctx, "calc-1") },
		func() (Response, error) { return client.SaveCalculationFromEmployment(ctx, true, map[string]string{}) },
		func() (Response, error) { return client.AttachCalculation(ctx, "payroll-1", "calc-1") },
	}
	for i, call := range calls {
		resp, err := call()
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !resp.OK() {
			t.Fatalf("call %d: unexpected status %d", i, resp.Status)
		}
	}
}

func TestClient_NonOKStatusIsNotAnError(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		return jsonResponse(422, map[string]string{"message": "employment not found"}), nil
	}}

	client, err := NewClient(ClientConfig{
		BaseURL:    "https://payroll.test/api",
		Tokens:     staticTokens{},
		HTTPClient: doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := client.GetPayroll(context.Background(), "missing")
	if err != nil {
		t.Fatalf("non-2xx must not be a transport error: %v", err)
	}
	if resp.OK() {
		t.Fatalf("expected non-OK response")
	}
	if resp.Status != 422 {
		t.Fatalf("expected status 422, got %d", resp.Status)
	}
	if got := resp.ErrorMessage(); got != "employment not found" {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestClient_TransportFailureIsAnError(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	}}

	client, err := NewClient(ClientConfig{
		BaseURL:    "https://payroll.test/api",
		Tokens:     staticTokens{},
		HTTPClient: doer,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := client.GetPayroll(context.Background(), "payroll-1"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestResponse_ErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "message field", body: `{"message": "bad request"}`, want: "bad request"},
		{name: "validation errors", body: `{"errors": [{"msg": "count must be > 0"}]}`, want: "count must be > 0"},
		{name: "message wins over errors", body: `{"message": "top", "errors": [{"msg": "nested"}]}`, want: "top"},
		{name: "no recognizable fields", body: `{"detail": "nope"}`, want: ""},
		{name: "not an object", body: `"oops"`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp := Response{Status: 400, Body: json.RawMessage(tt.body)}
			if got := resp.ErrorMessage(); got != tt.want {
				t.Fatalf("ErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{Tokens: staticTokens{}}); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "not a url", Tokens: staticTokens{}}); err == nil {
		t.Fatalf("expected error for invalid base URL")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "https://payroll.test"}); err == nil {
		t.Fatalf("expected error for missing token provider")
	}
}

func TestMetricPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"/payroll", "/payroll"},
		{"/payroll/abc-123", "/payroll"},
		{"/calculations/update-from-employment?save=true&updateRows=true", "/calculations"},
		{"/payroll/abc/add-calc?ids=x", "/payroll"},
	}
	for _, tt := range tests {
		if got := metricPath(tt.in); got != tt.want {
			t.Fatalf("metricPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
