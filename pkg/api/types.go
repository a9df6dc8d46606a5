// Package api defines the request and response types of the HTTP surface,
// plus helpers for writing standardized JSON responses.
package api

import (
	"encoding/json"

	"messynotes-backend/internal/domain"
)

// CreateNoteRequest is the body of POST /api/notes. Every field is
// optional; the engine fills in defaults. Content is the client editor's
// structured document, stored verbatim alongside the raw text.
type CreateNoteRequest struct {
	Title     string          `json:"title" validate:"max=256"`
	RawText   string          `json:"rawText"`
	Content   json.RawMessage `json:"content,omitempty"`
	Sticky    bool            `json:"sticky"`
	Ephemeral *bool           `json:"ephemeral"`
	Type      string          `json:"type" validate:"max=32"`
	Color     string          `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateNoteRequest is the body of PUT /api/notes/{noteID}. Absent fields
// leave the note untouched. AutoOrganize asks the engine to run the
// auto-link scan if the text changed.
type UpdateNoteRequest struct {
	Title        *string         `json:"title" validate:"omitempty,max=256"`
	RawText      *string         `json:"rawText"`
	Content      json.RawMessage `json:"content,omitempty"`
	Sticky       *bool           `json:"sticky"`
	Ephemeral    *bool           `json:"ephemeral"`
	Archived     *bool           `json:"archived"`
	AutoOrganize bool            `json:"autoOrganize"`
}

// CreateLinkRequest is the body of POST /api/links.
type CreateLinkRequest struct {
	SourceID string `json:"sourceId" validate:"required"`
	TargetID string `json:"targetId" validate:"required"`
}

// OrganizeRequest is the body of POST /api/organize/clusters.
type OrganizeRequest struct {
	Preview bool `json:"preview"`
}

// SimilarNoteResult is one entry of GET /api/notes/{noteID}/similar.
type SimilarNoteResult struct {
	Note     domain.Note `json:"note"`
	Distance float64     `json:"distance"`
}

// SimilarNotesResponse is the body of GET /api/notes/{noteID}/similar.
type SimilarNotesResponse struct {
	Results []SimilarNoteResult `json:"results"`
}

// ClusterNoteView is one member of a computed cluster.
type ClusterNoteView struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Preview bool    `json:"preview"`
}

// ClusterView is one computed cluster with its proposed layout.
type ClusterView struct {
	ID      int               `json:"id"`
	Name    string            `json:"name"`
	Notes   []ClusterNoteView `json:"notes"`
	CenterX float64           `json:"centerX"`
	CenterY float64           `json:"centerY"`
	Color   string            `json:"color"`
}

// ClusterStatsView summarizes a clustering run.
type ClusterStatsView struct {
	TotalNotes         int     `json:"totalNotes"`
	NumClusters        int     `json:"numClusters"`
	AverageClusterSize float64 `json:"averageClusterSize"`
	SmallestCluster    int     `json:"smallestCluster"`
	LargestCluster     int     `json:"largestCluster"`
}

// OrganizeResponse is the body of POST /api/organize/clusters. Clusters is
// always present, empty when too few notes qualify, in which case Message
// explains why.
type OrganizeResponse struct {
	Clusters []ClusterView     `json:"clusters"`
	Stats    *ClusterStatsView `json:"stats,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// ArchiveResponse is the body of POST /api/organize/archive.
type ArchiveResponse struct {
	Archived int `json:"archived"`
}

// DeleteAllResponse is the body of DELETE /api/notes.
type DeleteAllResponse struct {
	Deleted int `json:"deleted"`
}

// ListNotesResponse is the body of GET /api/notes.
type ListNotesResponse struct {
	Notes []domain.Note `json:"notes"`
}

// ListLinksResponse is the body of GET /api/links.
type ListLinksResponse struct {
	Links []domain.Link `json:"links"`
}
