// Package reasoning defines the reasoning-model contract and the Gemini
// adapter used for planning, evaluation, and synthesis.
package reasoning

import (
	"context"
	"errors"
)

// ErrInference marks a provider-side reasoning failure. The orchestration
// core never silently retries it; it surfaces as a fatal run failure.
var ErrInference = errors.New("reasoning inference failed")

// PromptContext is the input to one inference call.
type PromptContext struct {
	System      string  // optional system framing
	Prompt      string  // user content
	ForceJSON   bool    // request application/json structured output
	Temperature float32 // 0 for deterministic stage contracts
}

// Provider issues one inference and returns structured text.
type Provider interface {
	// Name identifies the provider for rate gating and metrics.
	Name() string
	Infer(ctx context.Context, pc PromptContext) (string, error)
}
