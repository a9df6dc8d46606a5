// Package repository defines the persistence contracts for notes, links and
// graph metadata. Implementations live in subpackages; the service layer
// depends only on these interfaces.
package repository

import (
	"context"

	"messynotes-backend/internal/domain"
)

// NoteRepository persists notes. ListNotes returns notes ordered by
// updatedAt descending; ListActiveNotes filters out archived notes and
// makes no ordering promise.
type NoteRepository interface {
	CreateNote(ctx context.Context, note domain.Note) error
	FindNoteByID(ctx context.Context, userID, noteID string) (*domain.Note, error)
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	ListActiveNotes(ctx context.Context, userID string) ([]domain.Note, error)
	UpdateNote(ctx context.Context, note domain.Note) error

	// UpdateNotePosition writes only the spatial fields plus the ephemeral
	// flag. The cluster engine's spatial commit calls this once per member;
	// a partially applied commit is accepted, not rolled back.
	UpdateNotePosition(ctx context.Context, userID, noteID string, x, y float64, ephemeral bool) error

	DeleteNote(ctx context.Context, userID, noteID string) error
	DeleteAllNotes(ctx context.Context, userID string) (int, error)

	// ListUserIDs enumerates users that currently own notes, for the
	// periodic archival sweep.
	ListUserIDs(ctx context.Context) ([]string, error)
}

// LinkRepository persists directed links. The ordered (source, target) pair
// is unique per user.
type LinkRepository interface {
	CreateLink(ctx context.Context, link domain.Link) error
	FindLink(ctx context.Context, userID, sourceID, targetID string) (*domain.Link, error)
	ListLinks(ctx context.Context, userID string) ([]domain.Link, error)

	// IncrementLinkStrength atomically adds delta to an existing link's
	// strength. Returns a not-found error if the link does not exist.
	IncrementLinkStrength(ctx context.Context, userID, sourceID, targetID string, delta float64) error

	// CountLinksForNote returns incoming plus outgoing link count.
	CountLinksForNote(ctx context.Context, userID, noteID string) (int, error)

	DeleteLinksForNote(ctx context.Context, userID, noteID string) error
}

// GraphRepository persists the per-user graph canvas metadata and the
// per-note mindmap canvases. GetCanvas returns an empty canvas, not an
// error, for a note that never had one saved.
type GraphRepository interface {
	GetGraphMetadata(ctx context.Context, userID string) (*domain.GraphMetadata, error)
	SaveGraphMetadata(ctx context.Context, userID string, meta domain.GraphMetadata) error

	GetCanvas(ctx context.Context, userID, noteID string) (*domain.CanvasData, error)
	SaveCanvas(ctx context.Context, userID, noteID string, canvas domain.CanvasData) error
	DeleteCanvas(ctx context.Context, userID, noteID string) error
}

// Repository is the combined persistence contract the service layer uses.
type Repository interface {
	NoteRepository
	LinkRepository
	GraphRepository
}

// Config holds repository configuration shared by implementations.
type Config struct {
	TableName string
	IndexName string
}

// NewConfig creates a repository config with the given table and index.
func NewConfig(tableName, indexName string) Config {
	return Config{TableName: tableName, IndexName: indexName}
}
