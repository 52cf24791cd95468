// Package genai abstracts the generative backends used for plan generation
// and synthesis. The pipeline never talks to a vendor SDK directly; it asks
// a Backend for a completion and degrades to deterministic fallbacks when
// the backend is unavailable.
package genai

import (
	"context"
)

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature *float64
}

// Backend produces text completions.
type Backend interface {
	// Name identifies the backend in logs and stats.
	Name() string

	// Complete returns the completion text for the request.
	Complete(ctx context.Context, req Request) (string, error)
}

// Temp is a convenience for building Request.Temperature.
func Temp(t float64) *float64 { return &t }
