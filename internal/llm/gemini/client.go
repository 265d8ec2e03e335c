package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/bads1de/CareerRise/internal/llm"
	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

const defaultModel = "gemini-1.5-flash"

// Client implements llm.Client on the Gemini API.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(model) == "" || strings.HasPrefix(model, "gpt-") {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.7)
	if strings.TrimSpace(system) != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := responseText(resp)
	fields := map[string]any{"provider": "gemini", "model": c.model}
	if resp != nil && resp.UsageMetadata != nil {
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	telemetry.Info("llm.response", fields)
	return text, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// responseText joins the text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

var _ llm.Client = (*Client)(nil)
