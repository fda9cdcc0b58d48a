package payroll

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hoursync/metrics"
)

const maxResponseBody = 1 << 20

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenProvider supplies a usable bearer token for each outbound request.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type ClientConfig struct {
	BaseURL    string
	Tokens     TokenProvider
	UserAgent  string
	HTTPClient httpDoer
	Metrics    metrics.Recorder
}

// Client is the uniform request executor for the payroll API. Every call
// attaches the cached bearer token and classifies the HTTP outcome into a
// Response; transport failures are returned as errors.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	userAgent  string
	httpClient httpDoer
	metrics    metrics.Recorder
}

func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	if cfg.Tokens == nil {
		return nil, errors.New("token provider is required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	return &Client{
		baseURL:    baseURL,
		tokens:     cfg.Tokens,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: doer,
		metrics:    recorder,
	}, nil
}

// Response is the classified outcome of one payroll API call.
type Response struct {
	Status int
	Body   json.RawMessage
}

func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

func (r Response) Decode(out any) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Body, out)
}

type remoteErrorBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Msg string `json:"msg"`
	} `json:"errors"`
}

// ErrorMessage extracts a human-readable failure reason from the response
// body: the remote "message" field first, then the first validation error.
// Returns "" when neither is present.
func (r Response) ErrorMessage() string {
	var body remoteErrorBody
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if len(body.Errors) > 0 && body.Errors[0].Msg != "" {
		return body.Errors[0].Msg
	}
	return ""
}

// Do executes one API call. A non-2xx status is not an error; callers decide
// from Response.OK. The returned error covers token acquisition, request
// building and transport failures only.
func (c *Client) Do(ctx context.Context, method, endpointPath string, body any) (Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Response{}, err
	}

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return Response{}, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return Response{}, fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncRemoteRequests(metricPath(endpointPath), 0)
		return Response{}, fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.metrics.IncRemoteRequests(metricPath(endpointPath), 0)
		return Response{}, fmt.Errorf("read response %s %s: %w", method, endpointPath, err)
	}

	c.metrics.IncRemoteRequests(metricPath(endpointPath), resp.StatusCode)
	return Response{Status: resp.StatusCode, Body: responseBody}, nil
}

func (c *Client) GetPayroll(ctx context.Context, payrollID string) (Response, error) {
	return c.Do(ctx, http.MethodGet, "/payroll/"+url.PathEscape(payrollID), nil)
}

func (c *Client) CreatePayroll(ctx context.Context, body any) (Response, error) {
	return c.Do(ctx, http.MethodPost, "/payroll", body)
}

func (c *Client) GetCalculation(ctx context.Context, calculationID string) (Response, error) {
	return c.Do(ctx, http.MethodGet, "/calculations/"+url.PathEscape(calculationID), nil)
}

// SaveCalculationFromEmployment creates or updates a calculation from the
// employment template. updateRows=true lets the remote side generate the
// default row template; updateRows=false preserves the rows being sent.
func (c *Client) SaveCalculationFromEmployment(ctx context.Context, updateRows bool, body any) (Response, error) {
	path := fmt.Sprintf("/calculations/update-from-employment?save=true&updateRows=%t", updateRows)
	return c.Do(ctx, http.MethodPost, path, body)
}

func (c *Client) AttachCalculation(ctx context.Context, payrollID, calculationID string) (Response, error) {
	path := fmt.Sprintf(
		"/payroll/%s/add-calc?ids=%s",
		url.PathEscape(payrollID),
		url.QueryEscape(calculationID),
	)
	return c.Do(ctx, http.MethodPost, path, nil)
}

// metricPath strips query string and path parameters so the counter label
// cardinality stays bounded.
func metricPath(endpointPath string) string {
	if idx := strings.IndexByte(endpointPath, '?'); idx >= 0 {
		endpointPath = endpointPath[:idx]
	}
	segments := strings.Split(endpointPath, "/")
	if len(segments) > 2 {
		segments = segments[:2]
	}
	return strings.Join(segments, "/")
}
