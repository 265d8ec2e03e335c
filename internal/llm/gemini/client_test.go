package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func TestResponseTextJoinsTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(" Senior "), genai.Text("engineer. ")}}},
			nil,
			{Content: nil},
		},
	}
	if got := responseText(resp); got != "Senior engineer." {
		t.Fatalf("unexpected text %q", got)
	}
	if got := responseText(nil); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(context.Background(), " ", ""); err == nil {
		t.Fatalf("expected error")
	}
}
