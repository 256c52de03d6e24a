// internal/assistant/assistant.go
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Message is one turn of assistant history.
type Message struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

// Config configures the generation endpoint and HTTP behavior.
type Config struct {
	APIURL     string
	APIKey     string
	Models     []string // tried in order
	HTTPClient *http.Client
}

type Client struct {
	cfg Config
}

// New builds an assistant client. Models are attempted in the configured
// order; a retryable failure falls through to the next model.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if len(cfg.Models) == 0 {
		cfg.Models = []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"}
	}
	return &Client{cfg: cfg}
}

type generateRequest struct {
	Model   string    `json:"model"`
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Chat sends one message with history and returns the first successful reply
// together with the model that served it. Rate-limit, model-not-found and
// quota-exhausted responses fall through to the next model; anything else
// fails immediately.
func (c *Client) Chat(ctx context.Context, message string, history []Message) (string, string, error) {
	if strings.TrimSpace(message) == "" {
		return "", "", fmt.Errorf("message is required")
	}

	var lastErr error
	for _, model := range c.cfg.Models {
		text, err := c.generate(ctx, model, message, history)
		if err == nil {
			return text, model, nil
		}
		if !retryable(err) {
			return "", "", err
		}
		slog.WarnContext(ctx, "assistant model failed, falling through", "model", model, "err", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no models configured")
	}
	return "", "", fmt.Errorf("all models failed: %w", lastErr)
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("generation endpoint returned %d: %s", e.status, e.body)
}

func retryable(err error) bool {
	se, ok := err.(*statusError)
	if !ok {
		return false
	}
	switch se.status {
	case http.StatusTooManyRequests, http.StatusNotFound:
		return true
	}
	body := strings.ToLower(se.body)
	return strings.Contains(body, "quota") || strings.Contains(body, "resource_exhausted")
}

func (c *Client) generate(ctx context.Context, model, message string, history []Message) (string, error) {
	payload, err := json.Marshal(generateRequest{Model: model, Message: message, History: history})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var out generateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if out.Error != "" {
		return "", &statusError{status: http.StatusOK, body: out.Error}
	}
	return out.Text, nil
}
