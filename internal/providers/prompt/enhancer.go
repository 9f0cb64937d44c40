// Package prompt rewrites short user prompts into richer scene descriptions
// for image generation. Enhancement is strictly best effort: callers always
// get a usable prompt back, never an error.
package prompt

import (
	"context"
	"strings"
)

// Enhancer rewrites a prompt. Implementations must return the original
// prompt unchanged when enhancement is unavailable or fails.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string) string
}

// Passthrough is the no-op enhancer used when no provider is configured.
type Passthrough struct{}

func (Passthrough) Enhance(_ context.Context, prompt string) string {
	return strings.TrimSpace(prompt)
}

var _ Enhancer = Passthrough{}
