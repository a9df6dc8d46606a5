package organizer

import (
	"time"

	"messynotes-backend/internal/domain"
)

// Weight scoring constants: each link (incoming or outgoing) is worth a
// fixed bonus, and every day without an update costs a fixed penalty.
const (
	linkBonus       = 0.2
	stalenessPerDay = 0.05
)

// computeWeight scores a note's relevance from its connectivity and the
// time since its previous update. The result never drops below the floor;
// weight is advisory metadata and gates nothing.
func computeWeight(linkCount int, sinceUpdate time.Duration) float64 {
	days := sinceUpdate.Hours() / 24
	if days < 0 {
		days = 0
	}
	return domain.ClampWeight(1 + float64(linkCount)*linkBonus - days*stalenessPerDay)
}
