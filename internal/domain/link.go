package domain

import "time"

// Strength deltas applied when a link between the same ordered pair is
// detected or created again. Auto-detected matches reinforce more gently
// than a user explicitly re-creating the link.
const (
	InitialLinkStrength = 1.0
	AutoLinkDelta       = 0.3
	ManualLinkDelta     = 0.5
)

// Link is a directed edge between two notes owned by the same user.
// At most one link exists per ordered (source, target) pair; the reverse
// pair is a distinct, independently tracked edge.
type Link struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SourceID  string    `json:"source"`
	TargetID  string    `json:"target"`
	Strength  float64   `json:"strength"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Touches reports whether the link has the given note on either end.
func (l *Link) Touches(noteID string) bool {
	return l.SourceID == noteID || l.TargetID == noteID
}
