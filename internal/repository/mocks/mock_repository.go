// Package mocks provides mock implementations of repository interfaces for testing.
package mocks

import (
	"context"
	"sort"
	"sync"

	"messynotes-backend/internal/domain"
	appErrors "messynotes-backend/pkg/errors"
)

// MockRepository provides an in-memory mock implementation of the
// Repository interface. Safe for concurrent use. SetError forces the named
// method to fail once configured, for exercising error paths.
type MockRepository struct {
	mu       sync.Mutex
	notes    map[string]map[string]domain.Note       // userID -> noteID -> note
	links    map[string]map[[2]string]domain.Link    // userID -> (src,tgt) -> link
	graphs   map[string]domain.GraphMetadata         // userID -> graph
	canvases map[string]map[string]domain.CanvasData // userID -> noteID -> canvas
	errors   map[string]error                        // method name -> forced error
}

// NewMockRepository creates a new mock repository instance.
func NewMockRepository() *MockRepository {
	return &MockRepository{
		notes:    make(map[string]map[string]domain.Note),
		links:    make(map[string]map[[2]string]domain.Link),
		graphs:   make(map[string]domain.GraphMetadata),
		canvases: make(map[string]map[string]domain.CanvasData),
		errors:   make(map[string]error),
	}
}

// SetError configures a method to always return the given error. Pass nil
// to clear it.
func (m *MockRepository) SetError(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.errors, method)
		return
	}
	m.errors[method] = err
}

func (m *MockRepository) forcedError(method string) error {
	return m.errors[method]
}

// Note operations

func (m *MockRepository) CreateNote(ctx context.Context, note domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("CreateNote"); err != nil {
		return err
	}
	if m.notes[note.UserID] == nil {
		m.notes[note.UserID] = make(map[string]domain.Note)
	}
	m.notes[note.UserID][note.ID] = note
	return nil
}

func (m *MockRepository) FindNoteByID(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("FindNoteByID"); err != nil {
		return nil, err
	}
	note, ok := m.notes[userID][noteID]
	if !ok {
		return nil, appErrors.NewNotFound("note not found")
	}
	return &note, nil
}

func (m *MockRepository) ListNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("ListNotes"); err != nil {
		return nil, err
	}
	notes := make([]domain.Note, 0, len(m.notes[userID]))
	for _, n := range m.notes[userID] {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID < notes[j].ID
	})
	return notes, nil
}

func (m *MockRepository) ListActiveNotes(ctx context.Context, userID string) ([]domain.Note, error) {
	all, err := m.ListNotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := all[:0]
	for _, n := range all {
		if n.Active() {
			active = append(active, n)
		}
	}
	return active, nil
}

func (m *MockRepository) UpdateNote(ctx context.Context, note domain.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("UpdateNote"); err != nil {
		return err
	}
	if _, ok := m.notes[note.UserID][note.ID]; !ok {
		return appErrors.NewNotFound("note not found")
	}
	m.notes[note.UserID][note.ID] = note
	return nil
}

func (m *MockRepository) UpdateNotePosition(ctx context.Context, userID, noteID string, x, y float64, ephemeral bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("UpdateNotePosition"); err != nil {
		return err
	}
	note, ok := m.notes[userID][noteID]
	if !ok {
		return appErrors.NewNotFound("note not found")
	}
	note.X = x
	note.Y = y
	note.Ephemeral = ephemeral
	m.notes[userID][noteID] = note
	return nil
}

func (m *MockRepository) DeleteNote(ctx context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("DeleteNote"); err != nil {
		return err
	}
	delete(m.notes[userID], noteID)
	return nil
}

func (m *MockRepository) DeleteAllNotes(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("DeleteAllNotes"); err != nil {
		return 0, err
	}
	count := len(m.notes[userID])
	delete(m.notes, userID)
	delete(m.links, userID)
	delete(m.graphs, userID)
	delete(m.canvases, userID)
	return count, nil
}

func (m *MockRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("ListUserIDs"); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(m.notes))
	for id := range m.notes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Link operations

func (m *MockRepository) CreateLink(ctx context.Context, link domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("CreateLink"); err != nil {
		return err
	}
	key := [2]string{link.SourceID, link.TargetID}
	if m.links[link.UserID] == nil {
		m.links[link.UserID] = make(map[[2]string]domain.Link)
	}
	if _, exists := m.links[link.UserID][key]; exists {
		return appErrors.NewValidation("link already exists for this pair")
	}
	m.links[link.UserID][key] = link
	return nil
}

func (m *MockRepository) FindLink(ctx context.Context, userID, sourceID, targetID string) (*domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("FindLink"); err != nil {
		return nil, err
	}
	link, ok := m.links[userID][[2]string{sourceID, targetID}]
	if !ok {
		return nil, appErrors.NewNotFound("link not found")
	}
	return &link, nil
}

func (m *MockRepository) ListLinks(ctx context.Context, userID string) ([]domain.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("ListLinks"); err != nil {
		return nil, err
	}
	links := make([]domain.Link, 0, len(m.links[userID]))
	for _, l := range m.links[userID] {
		links = append(links, l)
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].SourceID != links[j].SourceID {
			return links[i].SourceID < links[j].SourceID
		}
		return links[i].TargetID < links[j].TargetID
	})
	return links, nil
}

func (m *MockRepository) IncrementLinkStrength(ctx context.Context, userID, sourceID, targetID string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("IncrementLinkStrength"); err != nil {
		return err
	}
	key := [2]string{sourceID, targetID}
	link, ok := m.links[userID][key]
	if !ok {
		return appErrors.NewNotFound("link not found")
	}
	link.Strength += delta
	m.links[userID][key] = link
	return nil
}

func (m *MockRepository) CountLinksForNote(ctx context.Context, userID, noteID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("CountLinksForNote"); err != nil {
		return 0, err
	}
	count := 0
	for _, l := range m.links[userID] {
		if l.Touches(noteID) {
			count++
		}
	}
	return count, nil
}

func (m *MockRepository) DeleteLinksForNote(ctx context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("DeleteLinksForNote"); err != nil {
		return err
	}
	for key, l := range m.links[userID] {
		if l.Touches(noteID) {
			delete(m.links[userID], key)
		}
	}
	return nil
}

// Graph operations

func (m *MockRepository) GetGraphMetadata(ctx context.Context, userID string) (*domain.GraphMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("GetGraphMetadata"); err != nil {
		return nil, err
	}
	meta, ok := m.graphs[userID]
	if !ok {
		meta = domain.NewGraphMetadata()
	}
	return &meta, nil
}

func (m *MockRepository) SaveGraphMetadata(ctx context.Context, userID string, meta domain.GraphMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("SaveGraphMetadata"); err != nil {
		return err
	}
	m.graphs[userID] = meta
	return nil
}

// Canvas operations

func (m *MockRepository) GetCanvas(ctx context.Context, userID, noteID string) (*domain.CanvasData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("GetCanvas"); err != nil {
		return nil, err
	}
	canvas, ok := m.canvases[userID][noteID]
	if !ok {
		canvas = domain.NewCanvasData()
	}
	return &canvas, nil
}

func (m *MockRepository) SaveCanvas(ctx context.Context, userID, noteID string, canvas domain.CanvasData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("SaveCanvas"); err != nil {
		return err
	}
	if m.canvases[userID] == nil {
		m.canvases[userID] = make(map[string]domain.CanvasData)
	}
	m.canvases[userID][noteID] = canvas
	return nil
}

func (m *MockRepository) DeleteCanvas(ctx context.Context, userID, noteID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.forcedError("DeleteCanvas"); err != nil {
		return err
	}
	delete(m.canvases[userID], noteID)
	return nil
}
