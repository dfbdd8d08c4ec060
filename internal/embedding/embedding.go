// Package embedding turns text into fixed-width vectors for similarity
// search. Vectors are returned as the provider produced them; callers
// normalize before storing or querying.
package embedding

import (
	"context"
	"strings"
)

// Provider computes the embedding of a piece of text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f ProviderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// EventText is the text embedded for an event. The name is repeated to
// weigh it above the description.
func EventText(name, description string) string {
	return strings.Repeat(name, 3) + " " + description
}

// CollegeText is the text embedded for a college.
func CollegeText(name string) string {
	return strings.Repeat(name, 3)
}
