// Package ai defines the generative and embedding backend contracts consumed
// by the coach. Implementations live in subpackages.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrBackendUnavailable marks a backend that is not configured or cannot be reached.
	ErrBackendUnavailable = errors.New("generative backend unavailable")
	// ErrEmptyResponse marks a backend call that returned no text.
	ErrEmptyResponse = errors.New("generative backend returned empty response")
)

// Generator turns a prompt into free text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Provider() string
	Model() string
}

// Embedder turns text into a dense vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Disabled is a Generator and Embedder that always reports ErrBackendUnavailable.
type Disabled struct{}

func (Disabled) Generate(context.Context, string) (string, error) {
	return "", ErrBackendUnavailable
}

func (Disabled) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrBackendUnavailable
}

func (Disabled) Provider() string { return "none" }

func (Disabled) Model() string { return "" }

// Available reports whether g is a usable backend.
func Available(g Generator) bool {
	if g == nil {
		return false
	}
	_, disabled := g.(Disabled)
	return !disabled
}
