// Package index provides an in-memory per-user similarity index over note
// embeddings. It is the source the organizer reads for nearest-neighbor
// queries and clustering snapshots; the durable store remains authoritative.
package index

import (
	"math"
	"sort"
	"sync"

	appErrors "messynotes-backend/pkg/errors"
)

// Match is a single similarity query result.
type Match struct {
	NoteID   string  `json:"noteId"`
	Distance float64 `json:"distance"`
}

// SimilarityIndex stores one vector per note and answers k-nearest-neighbor
// queries with Euclidean distance over unit vectors. Thread-safe.
type SimilarityIndex struct {
	mu    sync.RWMutex
	users map[string]*userIndex
}

type userIndex struct {
	// dim is established by the first upsert; later vectors must match.
	dim      int
	vectors  map[string][]float64
	archived map[string]bool
}

// NewSimilarityIndex creates an empty index.
func NewSimilarityIndex() *SimilarityIndex {
	return &SimilarityIndex{
		users: make(map[string]*userIndex),
	}
}

// Upsert replaces the stored vector for a note. The first vector stored for
// a user fixes that user's dimension; mismatched upserts are rejected.
func (ix *SimilarityIndex) Upsert(userID, noteID string, vector []float64) error {
	if len(vector) == 0 {
		return appErrors.NewValidation("embedding vector must not be empty")
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	u, ok := ix.users[userID]
	if !ok {
		u = &userIndex{
			dim:      len(vector),
			vectors:  make(map[string][]float64),
			archived: make(map[string]bool),
		}
		ix.users[userID] = u
	}
	if len(vector) != u.dim {
		return appErrors.NewValidation("embedding dimension mismatch")
	}

	u.vectors[noteID] = append([]float64(nil), vector...)
	return nil
}

// Query returns up to k active notes ranked by ascending distance to vector,
// excluding excludeNoteID. Ties break by note ID so ordering is stable.
// An empty result is normal when nothing qualifies.
func (ix *SimilarityIndex) Query(userID string, vector []float64, excludeNoteID string, k int) []Match {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	u, ok := ix.users[userID]
	if !ok || k <= 0 {
		return nil
	}

	matches := make([]Match, 0, len(u.vectors))
	for noteID, stored := range u.vectors {
		if noteID == excludeNoteID || u.archived[noteID] {
			continue
		}
		if len(stored) != len(vector) {
			continue
		}
		matches = append(matches, Match{NoteID: noteID, Distance: euclidean(vector, stored)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].NoteID < matches[j].NoteID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// SetArchived marks a note in or out of the active set without touching its
// vector. Archived notes never appear in query results.
func (ix *SimilarityIndex) SetArchived(userID, noteID string, archived bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if u, ok := ix.users[userID]; ok {
		if archived {
			u.archived[noteID] = true
		} else {
			delete(u.archived, noteID)
		}
	}
}

// Remove drops a note from the index entirely.
func (ix *SimilarityIndex) Remove(userID, noteID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if u, ok := ix.users[userID]; ok {
		delete(u.vectors, noteID)
		delete(u.archived, noteID)
	}
}

// RemoveUser drops all of a user's vectors.
func (ix *SimilarityIndex) RemoveUser(userID string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.users, userID)
}

// Has reports whether the index holds a vector for the note.
func (ix *SimilarityIndex) Has(userID, noteID string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	u, ok := ix.users[userID]
	if !ok {
		return false
	}
	_, ok = u.vectors[noteID]
	return ok
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
