// Package embedding maps note text to fixed-dimension unit vectors.
package embedding

import (
	"context"
	"math"
)

// Provider defines the interface for embedding providers (OpenAI, local
// models, etc.). Implementations must be deterministic for identical text
// and model version, and must return unit-normalized vectors.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	IsAvailable() bool
}

// Normalize scales v to unit length in place and returns it. A zero vector
// is returned unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}
