package organizer

import (
	"testing"
	"time"

	"messynotes-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestComputeWeight(t *testing.T) {
	tests := []struct {
		name        string
		linkCount   int
		sinceUpdate time.Duration
		want        float64
	}{
		{"fresh and unlinked", 0, 0, 1.0},
		{"three links fresh", 3, 0, 1.6},
		{"unlinked two days stale", 0, 48 * time.Hour, 0.9},
		{"two links one day stale", 2, 24 * time.Hour, 1.35},
		{"partial day", 0, 12 * time.Hour, 0.975},
		{"floor on extreme staleness", 0, 1000 * 24 * time.Hour, domain.MinWeight},
		{"floor holds with links", 5, 1000 * 24 * time.Hour, domain.MinWeight},
		{"negative elapsed clamps to zero", 0, -time.Hour, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, computeWeight(tt.linkCount, tt.sinceUpdate), 1e-9)
		})
	}
}

func TestComputeWeightNeverBelowFloor(t *testing.T) {
	for days := 0; days <= 365; days += 7 {
		got := computeWeight(0, time.Duration(days)*24*time.Hour)
		assert.GreaterOrEqual(t, got, domain.MinWeight, "weight for %d days", days)
	}
}
