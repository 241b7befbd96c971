package reasoning

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Gemini is a thin wrapper around the official genai client. The API key is
// picked up from GEMINI_API_KEY by the SDK.
type Gemini struct {
	cli   *genai.Client
	model string
}

// NewGemini constructs a Gemini-backed reasoning provider.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{cli: cli, model: model}, nil
}

func (g *Gemini) Name() string { return "gemini" }

// Infer sends one generation request and returns the first candidate's text.
func (g *Gemini) Infer(ctx context.Context, pc PromptContext) (string, error) {
	full := pc.Prompt
	if pc.System != "" {
		full = pc.System + "\n\n" + full
	}

	cfg := &genai.GenerateContentConfig{}
	if pc.ForceJSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if pc.Temperature > 0 {
		temp := pc.Temperature
		cfg.Temperature = &temp
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		cfg,
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidate", ErrInference)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", fmt.Errorf("%w: empty response text", ErrInference)
	}
	return out, nil
}
