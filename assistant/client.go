// Package assistant relays chat conversations to a Gemini-style generation
// endpoint. The upstream API key stays server-side; browsers only ever talk
// to this relay.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBody = 1 << 20

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Message is one turn of the conversation as the browser sends it. Role is
// "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpstreamError reports a failed generation call with a message safe to show
// to end users.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("assistant upstream status %d: %s", e.Status, e.Message)
}

type ClientConfig struct {
	APIURL            string
	APIKey            string
	SystemInstruction string
	HTTPClient        httpDoer
}

type Client struct {
	apiURL            string
	apiKey            string
	systemInstruction string
	httpClient        httpDoer
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if strings.TrimSpace(cfg.APIURL) == "" {
		return nil, errors.New("assistant api url is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("assistant api key is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		apiURL:            cfg.APIURL,
		apiKey:            cfg.APIKey,
		systemInstruction: cfg.SystemInstruction,
		httpClient:        httpClient,
	}, nil
}

type generateRequest struct {
	SystemInstruction *generateContent  `json:"system_instruction,omitempty"`
	Contents          []generateContent `json:"contents"`
	GenerationConfig  generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []generatePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Chat sends the conversation upstream and returns the model's reply text.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", errors.New("at least one message is required")
	}

	payload := generateRequest{
		Contents:         make([]generateContent, 0, len(messages)),
		GenerationConfig: generationConfig{Temperature: 0.2},
	}
	if c.systemInstruction != "" {
		payload.SystemInstruction = &generateContent{
			Parts: []generatePart{{Text: c.systemInstruction}},
		}
	}
	for _, message := range messages {
		role := "user"
		if message.Role == "assistant" {
			role = "model"
		}
		payload.Contents = append(payload.Contents, generateContent{
			Role:  role,
			Parts: []generatePart{{Text: message.Content}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("assistant request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return "", fmt.Errorf("read assistant response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{
			Status:  resp.StatusCode,
			Message: friendlyUpstreamMessage(resp.StatusCode),
		}
	}

	var decoded generateResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode assistant response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", &UpstreamError{
			Status:  http.StatusBadGateway,
			Message: "The assistant returned an empty reply. Please try again.",
		}
	}

	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

func friendlyUpstreamMessage(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "The assistant is busy right now. Please try again in a moment."
	case http.StatusUnauthorized, http.StatusForbidden:
		return "The assistant is not available right now."
	case http.StatusNotFound:
		return "The assistant is not available right now."
	default:
		return "The assistant could not answer. Please try again."
	}
}
