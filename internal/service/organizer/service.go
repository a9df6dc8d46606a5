// Package organizer implements the semantic organization engine: embedding
// upkeep, similarity queries, heuristic auto-linking, weight scoring,
// k-means clustering with spatial layout, and the ephemeral-note lifecycle.
package organizer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"messynotes-backend/internal/config"
	"messynotes-backend/internal/domain"
	"messynotes-backend/internal/embedding"
	"messynotes-backend/internal/index"
	"messynotes-backend/internal/infrastructure/cache"
	"messynotes-backend/internal/repository"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NoteInput carries the fields a client may set when creating a note.
// Content is the editor's structured document, stored verbatim.
type NoteInput struct {
	Title     string
	RawText   string
	Content   json.RawMessage
	Sticky    bool
	Ephemeral *bool
	NoteType  string
	Color     string
}

// NotePatch carries the fields a client may change on update. Nil pointers
// leave the field untouched. AutoOrganize triggers the auto-link scan when
// the raw text changes.
type NotePatch struct {
	Title        *string
	RawText      *string
	Content      json.RawMessage
	Sticky       *bool
	Ephemeral    *bool
	Archived     *bool
	AutoOrganize bool
}

// SimilarNote is a similarity query result joined with its note.
type SimilarNote struct {
	Note     domain.Note
	Distance float64
}

// Service defines the organization engine's operations.
type Service interface {
	CreateNote(ctx context.Context, userID string, input NoteInput) (*domain.Note, error)
	GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error)
	ListNotes(ctx context.Context, userID string) ([]domain.Note, error)
	UpdateNote(ctx context.Context, userID, noteID string, patch NotePatch) (*domain.Note, error)
	DeleteNote(ctx context.Context, userID, noteID string) error
	DeleteAllNotes(ctx context.Context, userID string) (int, error)

	SimilarNotes(ctx context.Context, userID, noteID string, k int) ([]SimilarNote, error)
	CreateLink(ctx context.Context, userID, sourceID, targetID string) (*domain.Link, error)
	ListLinks(ctx context.Context, userID string) ([]domain.Link, error)

	ClusterNotes(ctx context.Context, userID string, preview bool) (*ClusterResult, error)
	ArchiveStale(ctx context.Context, userID string) (int, error)
	ArchiveStaleAllUsers(ctx context.Context) (int, error)

	GetGraph(ctx context.Context, userID string) (*domain.GraphMetadata, error)
	SaveGraph(ctx context.Context, userID string, meta domain.GraphMetadata) error

	GetCanvas(ctx context.Context, userID, noteID string) (*domain.CanvasData, error)
	SaveCanvas(ctx context.Context, userID, noteID string, canvas domain.CanvasData) error
}

// service implements the Service interface with concrete business logic.
type service struct {
	repo     repository.Repository
	simIndex *index.SimilarityIndex
	embedder embedding.Provider
	cache    *cache.MemoryCache
	features config.Features
	logger   *zap.Logger

	// now is swapped out by tests that assert on staleness behavior.
	now func() time.Time

	// indexed tracks which users' vectors have been loaded from the store.
	mu      sync.Mutex
	indexed map[string]bool
}

// NewService creates the organization engine. The cache may be nil, in
// which case responses are always recomputed.
func NewService(repo repository.Repository, simIndex *index.SimilarityIndex, embedder embedding.Provider, responseCache *cache.MemoryCache, features config.Features, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:     repo,
		simIndex: simIndex,
		embedder: embedder,
		cache:    responseCache,
		features: features,
		logger:   logger,
		now:      time.Now,
		indexed:  make(map[string]bool),
	}
}

// CreateNote stores a new note. A note created with raw text gains its
// embedding immediately; embedding failure is logged and the create
// proceeds without a vector.
func (s *service) CreateNote(ctx context.Context, userID string, input NoteInput) (*domain.Note, error) {
	if userID == "" {
		return nil, appErrors.NewValidation("user id is required")
	}

	now := s.now()
	title := input.Title
	if title == "" {
		title = "Untitled Thought"
	}
	noteType := input.NoteType
	if noteType == "" {
		noteType = "text"
	}
	color := input.Color
	if color == "" {
		color = "#ffffff"
	}
	ephemeral := true
	if input.Ephemeral != nil {
		ephemeral = *input.Ephemeral
	}

	note := domain.Note{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		RawText:   input.RawText,
		Content:   input.Content,
		Weight:    1.0,
		Sticky:    input.Sticky,
		Ephemeral: ephemeral,
		NoteType:  noteType,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if note.RawText != "" {
		s.refreshEmbedding(ctx, &note)
	}

	if err := s.repo.CreateNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, "failed to create note")
	}
	s.invalidateUser(userID)
	return &note, nil
}

// GetNote retrieves a single note.
func (s *service) GetNote(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	return s.repo.FindNoteByID(ctx, userID, noteID)
}

// ListNotes returns the user's notes, most recently updated first.
func (s *service) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	return s.repo.ListNotes(ctx, userID)
}

// UpdateNote applies a patch to a note. The weight is recomputed from the
// link count and staleness before this update; a raw-text change refreshes
// the embedding and, when requested, runs the auto-link scan.
func (s *service) UpdateNote(ctx context.Context, userID, noteID string, patch NotePatch) (*domain.Note, error) {
	note, err := s.repo.FindNoteByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	prevUpdatedAt := note.UpdatedAt

	// Link count is taken before the auto-link pass so a match created by
	// this very update does not feed back into the score.
	linkCount, err := s.repo.CountLinksForNote(ctx, userID, noteID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to count links")
	}
	note.Weight = computeWeight(linkCount, now.Sub(prevUpdatedAt))

	textChanged := false
	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.RawText != nil && *patch.RawText != note.RawText {
		note.RawText = *patch.RawText
		textChanged = true
	}
	if patch.Content != nil {
		note.Content = patch.Content
	}
	if patch.Sticky != nil {
		note.Sticky = *patch.Sticky
	}
	if patch.Ephemeral != nil {
		note.Ephemeral = *patch.Ephemeral
	}
	if patch.Archived != nil {
		note.Archived = *patch.Archived
	}
	note.UpdatedAt = now

	// The embedding is refreshed only for a non-empty text write; clearing
	// the text leaves the old vector stale in place.
	if textChanged && note.RawText != "" {
		s.refreshEmbedding(ctx, note)
	}

	if err := s.repo.UpdateNote(ctx, *note); err != nil {
		return nil, err
	}
	s.simIndex.SetArchived(userID, noteID, note.Archived)

	if textChanged && patch.AutoOrganize && s.features.EnableAutoConnect && note.Active() {
		s.autoLink(ctx, note)
	}

	s.invalidateUser(userID)
	return note, nil
}

// DeleteNote removes a note, every link touching it, its mindmap canvas,
// and its graph canvas entry.
func (s *service) DeleteNote(ctx context.Context, userID, noteID string) error {
	if _, err := s.repo.FindNoteByID(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.repo.DeleteNote(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.repo.DeleteLinksForNote(ctx, userID, noteID); err != nil {
		return appErrors.Wrap(err, "failed to delete links for note")
	}
	if err := s.repo.DeleteCanvas(ctx, userID, noteID); err != nil {
		s.logger.Warn("failed to delete canvas after note delete",
			zap.String("user_id", userID),
			zap.String("note_id", noteID),
			zap.Error(err),
		)
	}

	meta, err := s.repo.GetGraphMetadata(ctx, userID)
	if err == nil {
		meta.RemoveNode(noteID)
		if err := s.repo.SaveGraphMetadata(ctx, userID, *meta); err != nil {
			s.logger.Warn("failed to clean graph metadata after delete",
				zap.String("user_id", userID),
				zap.String("note_id", noteID),
				zap.Error(err),
			)
		}
	}

	s.simIndex.Remove(userID, noteID)
	s.invalidateUser(userID)
	return nil
}

// DeleteAllNotes wipes a user's notes, links and graph, returning the
// number of notes removed.
func (s *service) DeleteAllNotes(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.DeleteAllNotes(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.simIndex.RemoveUser(userID)
	s.mu.Lock()
	delete(s.indexed, userID)
	s.mu.Unlock()
	s.invalidateUser(userID)
	return count, nil
}

// SimilarNotes returns up to k active notes nearest to the given note in
// embedding space. A note without an embedding has no neighbors.
func (s *service) SimilarNotes(ctx context.Context, userID, noteID string, k int) ([]SimilarNote, error) {
	if err := s.ensureIndexed(ctx, userID); err != nil {
		return nil, err
	}

	note, err := s.repo.FindNoteByID(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}
	if !note.HasEmbedding() {
		return []SimilarNote{}, nil
	}
	if k <= 0 {
		k = 5
	}

	matches := s.simIndex.Query(userID, note.Embedding, noteID, k)
	results := make([]SimilarNote, 0, len(matches))
	for _, m := range matches {
		neighbor, err := s.repo.FindNoteByID(ctx, userID, m.NoteID)
		if err != nil {
			// The note may have been deleted since the index was built.
			continue
		}
		results = append(results, SimilarNote{Note: *neighbor, Distance: m.Distance})
	}
	return results, nil
}

// GetGraph returns the user's graph canvas metadata, cached under the
// configured TTL.
func (s *service) GetGraph(ctx context.Context, userID string) (*domain.GraphMetadata, error) {
	cacheKey := "user:" + userID + ":graph"
	if s.cache != nil && s.features.EnableCaching {
		if raw, ok := s.cache.Get(cacheKey); ok {
			var meta domain.GraphMetadata
			if err := json.Unmarshal(raw, &meta); err == nil {
				return &meta, nil
			}
		}
	}

	meta, err := s.repo.GetGraphMetadata(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.features.EnableCaching {
		if raw, err := json.Marshal(meta); err == nil {
			s.cache.Set(cacheKey, raw)
		}
	}
	return meta, nil
}

// SaveGraph replaces the user's graph canvas metadata.
func (s *service) SaveGraph(ctx context.Context, userID string, meta domain.GraphMetadata) error {
	if err := s.repo.SaveGraphMetadata(ctx, userID, meta); err != nil {
		return err
	}
	s.invalidateUser(userID)
	return nil
}

// GetCanvas returns a note's mindmap canvas. A note without saved canvas
// state yields an empty canvas; a missing note is an error.
func (s *service) GetCanvas(ctx context.Context, userID, noteID string) (*domain.CanvasData, error) {
	if _, err := s.repo.FindNoteByID(ctx, userID, noteID); err != nil {
		return nil, err
	}

	cacheKey := "user:" + userID + ":canvas:" + noteID
	if s.cache != nil && s.features.EnableCaching {
		if raw, ok := s.cache.Get(cacheKey); ok {
			var canvas domain.CanvasData
			if err := json.Unmarshal(raw, &canvas); err == nil {
				return &canvas, nil
			}
		}
	}

	canvas, err := s.repo.GetCanvas(ctx, userID, noteID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil && s.features.EnableCaching {
		if raw, err := json.Marshal(canvas); err == nil {
			s.cache.Set(cacheKey, raw)
		}
	}
	return canvas, nil
}

// SaveCanvas replaces a note's mindmap canvas. The note must exist.
func (s *service) SaveCanvas(ctx context.Context, userID, noteID string, canvas domain.CanvasData) error {
	if _, err := s.repo.FindNoteByID(ctx, userID, noteID); err != nil {
		return err
	}
	if err := s.repo.SaveCanvas(ctx, userID, noteID, canvas); err != nil {
		return err
	}
	s.invalidateUser(userID)
	return nil
}

// refreshEmbedding recomputes the note's vector and updates the similarity
// index. Failure is non-fatal: the surrounding create or update proceeds
// with the previous (possibly absent) vector.
func (s *service) refreshEmbedding(ctx context.Context, note *domain.Note) {
	vector, err := s.embedder.Embed(ctx, note.RawText)
	if err != nil {
		s.logger.Warn("embedding generation failed; continuing without refreshed vector",
			zap.String("user_id", note.UserID),
			zap.String("note_id", note.ID),
			zap.Error(err),
		)
		return
	}

	if err := s.simIndex.Upsert(note.UserID, note.ID, vector); err != nil {
		s.logger.Warn("similarity index rejected vector; continuing without refreshed vector",
			zap.String("user_id", note.UserID),
			zap.String("note_id", note.ID),
			zap.Error(err),
		)
		return
	}
	note.Embedding = vector
}

// ensureIndexed lazily loads a user's stored vectors into the similarity
// index on first use after startup.
func (s *service) ensureIndexed(ctx context.Context, userID string) error {
	s.mu.Lock()
	done := s.indexed[userID]
	s.mu.Unlock()
	if done {
		return nil
	}

	notes, err := s.repo.ListNotes(ctx, userID)
	if err != nil {
		return appErrors.Wrap(err, "failed to load notes for indexing")
	}
	for i := range notes {
		n := &notes[i]
		if !n.HasEmbedding() {
			continue
		}
		if err := s.simIndex.Upsert(userID, n.ID, n.Embedding); err != nil {
			s.logger.Warn("skipping stored vector during index load",
				zap.String("user_id", userID),
				zap.String("note_id", n.ID),
				zap.Error(err),
			)
			continue
		}
		if n.Archived {
			s.simIndex.SetArchived(userID, n.ID, true)
		}
	}

	s.mu.Lock()
	s.indexed[userID] = true
	s.mu.Unlock()
	return nil
}

func (s *service) invalidateUser(userID string) {
	if s.cache != nil {
		s.cache.InvalidatePrefix("user:" + userID + ":")
	}
}
