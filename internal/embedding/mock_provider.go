package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// mockDimension keeps mock vectors small but large enough that distinct
// texts rarely collide.
const mockDimension = 64

// MockProvider provides a deterministic local implementation for testing
// and development. Identical text always yields the identical unit vector.
type MockProvider struct {
	available bool
	failing   bool
}

// NewMockProvider creates a new mock embedding provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

// SetFailing makes every Embed call return an error, for exercising the
// non-fatal embedding failure path.
func (m *MockProvider) SetFailing(failing bool) {
	m.failing = failing
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// Embed derives a unit vector from a hash of the text. Not semantically
// meaningful, but deterministic and uniformly spread.
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if m.failing {
		return nil, fmt.Errorf("mock embedding provider configured to fail")
	}

	vec := make([]float64, mockDimension)
	seed := sha256.Sum256([]byte(text))
	state := seed[:]
	for i := 0; i < mockDimension; i += 4 {
		h := sha256.Sum256(state)
		state = h[:]
		for j := 0; j < 4 && i+j < mockDimension; j++ {
			bits := binary.BigEndian.Uint64(h[j*8 : j*8+8])
			// Map to [-1, 1).
			vec[i+j] = float64(int64(bits)) / float64(1<<63)
		}
	}

	return Normalize(vec), nil
}
