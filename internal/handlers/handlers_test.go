package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"messynotes-backend/internal/config"
	"messynotes-backend/internal/domain"
	"messynotes-backend/internal/embedding"
	"messynotes-backend/internal/index"
	"messynotes-backend/internal/repository/mocks"
	"messynotes-backend/internal/service/organizer"
	"messynotes-backend/pkg/api"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "handler-test-secret"
	testUser   = "handler-test-user"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockRepository) {
	t.Helper()
	repo := mocks.NewMockRepository()
	svc := organizer.NewService(
		repo,
		index.NewSimilarityIndex(),
		embedding.NewMockProvider(),
		nil,
		config.Features{EnableCaching: false, EnableAutoConnect: true},
		zap.NewNop(),
	)
	handler := NewHandler(svc, zap.NewNop())
	router := NewRouter(handler, RouterConfig{JWTSecret: testSecret}, zap.NewNop())
	return router, repo
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": userID, "exp": time.Now().Add(time.Hour).Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerFor(t, testUser))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestNotesCRUD(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/notes", api.CreateNoteRequest{
		Title:   "First thought",
		RawText: "Some body text worth keeping around.",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "First thought", created.Title)
	assert.Equal(t, 1.0, created.Weight)
	assert.True(t, created.Ephemeral)

	rec = doJSON(t, router, http.MethodGet, "/api/notes/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	title := "Renamed thought"
	rec = doJSON(t, router, http.MethodPut, "/api/notes/"+created.ID, api.UpdateNoteRequest{Title: &title})
	require.Equal(t, http.StatusOK, rec.Code)
	var updated domain.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, title, updated.Title)

	rec = doJSON(t, router, http.MethodGet, "/api/notes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.ListNotesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Notes, 1)

	rec = doJSON(t, router, http.MethodDelete, "/api/notes/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/notes/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateNoteRejectsBadColor(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/notes", api.CreateNoteRequest{Color: "not-a-color"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateLinkToMissingNoteConflicts(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/notes", api.CreateNoteRequest{Title: "A"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var note domain.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))

	rec = doJSON(t, router, http.MethodPost, "/api/links", api.CreateLinkRequest{
		SourceID: note.ID,
		TargetID: "gone",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOrganizeClustersInsufficientData(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/organize/clusters", api.OrganizeRequest{Preview: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "message")
	require.Contains(t, body, "clusters")
	assert.Equal(t, "[]", string(body["clusters"]))
}

func TestOrganizeClustersContract(t *testing.T) {
	router, repo := newTestRouter(t)
	ctx := context.Background()

	vectors := [][]float64{
		{1.0, 0.0, 0.05}, {0.95, 0.1, 0.0}, {0.9, 0.05, 0.1},
		{0.0, 1.0, 0.05}, {0.1, 0.95, 0.0}, {0.05, 0.9, 0.1},
	}
	for i, vec := range vectors {
		require.NoError(t, repo.CreateNote(ctx, domain.Note{
			ID:        fmt.Sprintf("note-%d", i),
			UserID:    testUser,
			Title:     fmt.Sprintf("Note %d", i),
			RawText:   "Enough body text here to pass the content threshold.",
			Embedding: vec,
			Weight:    1.0,
			Ephemeral: true,
		}))
	}

	rec := doJSON(t, router, http.MethodPost, "/api/organize/clusters", api.OrganizeRequest{Preview: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Clusters []struct {
			ID    int    `json:"id"`
			Name  string `json:"name"`
			Notes []struct {
				ID      string  `json:"id"`
				Title   string  `json:"title"`
				X       float64 `json:"x"`
				Y       float64 `json:"y"`
				Preview bool    `json:"preview"`
			} `json:"notes"`
			CenterX float64 `json:"centerX"`
			CenterY float64 `json:"centerY"`
			Color   string  `json:"color"`
		} `json:"clusters"`
		Stats struct {
			TotalNotes         int     `json:"totalNotes"`
			NumClusters        int     `json:"numClusters"`
			AverageClusterSize float64 `json:"averageClusterSize"`
			SmallestCluster    int     `json:"smallestCluster"`
			LargestCluster     int     `json:"largestCluster"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.NotEmpty(t, resp.Clusters)
	assert.Equal(t, 6, resp.Stats.TotalNotes)
	assert.Equal(t, len(resp.Clusters), resp.Stats.NumClusters)

	seen := 0
	for _, cluster := range resp.Clusters {
		assert.NotZero(t, cluster.ID)
		assert.NotEmpty(t, cluster.Name)
		assert.NotEmpty(t, cluster.Color)
		for _, n := range cluster.Notes {
			assert.True(t, n.Preview)
			seen++
		}
	}
	assert.Equal(t, 6, seen)
}

func TestArchiveEndpoint(t *testing.T) {
	router, repo := newTestRouter(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateNote(ctx, domain.Note{
		ID: "stale", UserID: testUser, Title: "Stale scratch",
		Weight: 1.0, Ephemeral: true,
		UpdatedAt: time.Now().Add(-72 * time.Hour),
	}))

	rec := doJSON(t, router, http.MethodPost, "/api/organize/archive", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.ArchiveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Archived)
}

func TestGraphRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	meta := domain.NewGraphMetadata()
	meta.SetNode("n1", domain.GraphNodeMeta{X: 12, Y: 34, Pinned: true})
	rec := doJSON(t, router, http.MethodPut, "/api/graph", meta)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/graph", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored domain.GraphMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.Contains(t, stored.Nodes, "n1")
	assert.True(t, stored.Nodes["n1"].Pinned)
}

func TestCanvasRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/notes", api.CreateNoteRequest{Title: "Mindmap host"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var note domain.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))

	canvas := domain.NewCanvasData()
	canvas.SetNode("c1", domain.CanvasNodeMeta{X: 5, Y: 7, Label: "root"})
	canvas.Edges = append(canvas.Edges, domain.CanvasEdgeMeta{ID: "e1", Source: "c1", Target: "c1"})
	rec = doJSON(t, router, http.MethodPut, "/api/notes/"+note.ID+"/canvas", canvas)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/notes/"+note.ID+"/canvas", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stored domain.CanvasData
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	require.Contains(t, stored.Nodes, "c1")
	assert.Equal(t, "root", stored.Nodes["c1"].Label)
	require.Len(t, stored.Edges, 1)
}

func TestCanvasForMissingNote(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/notes/no-such-note/canvas", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPut, "/api/notes/no-such-note/canvas", domain.NewCanvasData())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoteContentRoundTrip(t *testing.T) {
	router, _ := newTestRouter(t)

	doc := json.RawMessage(`{"type":"doc","content":[{"type":"paragraph"}]}`)
	rec := doJSON(t, router, http.MethodPost, "/api/notes", api.CreateNoteRequest{
		Title:   "Rich note",
		RawText: "plain projection",
		Content: doc,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var note domain.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &note))
	assert.JSONEq(t, string(doc), string(note.Content))

	rec = doJSON(t, router, http.MethodGet, "/api/notes/"+note.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched domain.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.JSONEq(t, string(doc), string(fetched.Content))
}

func TestRequestsWithoutTokenAreRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthEndpointIsPublic(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
