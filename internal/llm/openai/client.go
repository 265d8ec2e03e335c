// Package openai calls the Chat Completions REST endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/bads1de/CareerRise/internal/llm"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 60 * time.Second
	temperature    = 0.7
)

// Options configures Client. Zero values pick defaults.
type Options struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// Client implements llm.Client.
type Client struct {
	opts Options
	http *http.Client
}

func NewClient(opts Options) (*Client, error) {
	opts.APIKey, opts.Model = strings.TrimSpace(opts.APIKey), strings.TrimSpace(opts.Model)
	switch {
	case opts.APIKey == "":
		return nil, errors.New("OPENAI_API_KEY is required")
	case opts.Model == "":
		return nil, errors.New("LLM_MODEL is required for OpenAI")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Client{opts: opts, http: &http.Client{Timeout: opts.Timeout}}, nil
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("openai: status %d", e.Status)
	}
	return fmt.Sprintf("openai: status %d: %s (%s)", e.Status, e.Message, e.Type)
}

func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete returns the first choice trimmed, or "" when the model produced none.
// Rate limits and 5xx answers are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	body := completionRequest{Model: c.opts.Model}
	if strings.TrimSpace(system) != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: system})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: user})
	// gpt-5 models reject any temperature but the default
	if !fixedTemperature(c.opts.Model) {
		t := temperature
		body.Temperature = &t
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	var out completionResponse
	attempt := func() error {
		var apiErr *APIError
		err := c.post(ctx, "/chat/completions", payload, &out)
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.opts.MaxRetries), ctx)
	if err := backoff.Retry(attempt, bo); err != nil {
		return "", err
	}

	telemetry.Info("llm.response", map[string]any{
		"provider":          "openai",
		"model":             c.opts.Model,
		"prompt_tokens":     out.Usage.PromptTokens,
		"completion_tokens": out.Usage.CompletionTokens,
	})
	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte, out *completionResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	*out = completionResponse{}
	decodeErr := json.NewDecoder(resp.Body).Decode(out)
	if resp.StatusCode/100 != 2 || out.Error != nil {
		apiErr := &APIError{Status: resp.StatusCode}
		if out.Error != nil {
			apiErr.Type, apiErr.Message = out.Error.Type, out.Error.Message
		}
		return apiErr
	}
	if decodeErr != nil {
		return backoff.Permanent(fmt.Errorf("openai: decode response: %w", decodeErr))
	}
	return nil
}

func fixedTemperature(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
