// Package domain contains the core data structures for the application,
// independent of the database or API layers.
package domain

import (
	"encoding/json"
	"time"
)

// MinWeight is the floor for a note's relevance weight. A note is never
// fully discounted no matter how stale or disconnected it is.
const MinWeight = 0.2

// Note represents a single note, thought, or idea owned by one user.
// Content is the editor's structured document; RawText is its plain-text
// projection and is what the engine embeds and scans. The two are written
// together by clients and the engine never inspects Content.
type Note struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Title     string          `json:"title"`
	RawText   string          `json:"rawText,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	Embedding []float64       `json:"-"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Weight    float64         `json:"weight"`
	Sticky    bool            `json:"sticky"`
	Ephemeral bool            `json:"ephemeral"`
	Archived  bool            `json:"archived"`
	NoteType  string          `json:"type"`
	Color     string          `json:"color"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// HasEmbedding reports whether the note has ever been embedded. The vector
// may be stale if the raw text was later cleared; it is never deleted.
func (n *Note) HasEmbedding() bool {
	return len(n.Embedding) > 0
}

// Active reports whether the note participates in similarity search,
// auto-linking and clustering.
func (n *Note) Active() bool {
	return !n.Archived
}

// StaleEphemeral reports whether the note is eligible for automatic
// archiving: ephemeral, not yet archived, and unmodified past the threshold.
func (n *Note) StaleEphemeral(now time.Time, threshold time.Duration) bool {
	return n.Ephemeral && !n.Archived && now.Sub(n.UpdatedAt) > threshold
}

// ClampWeight applies the weight floor.
func ClampWeight(w float64) float64 {
	if w < MinWeight {
		return MinWeight
	}
	return w
}
