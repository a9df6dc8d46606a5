package organizer

import (
	"context"
	"math"
	"testing"

	"messynotes-backend/internal/domain"
	"messynotes-backend/internal/repository/mocks"
	appErrors "messynotes-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedClusterNotes writes two well-separated groups of qualifying notes:
// three near one embedding direction, three near another. Every note's
// text is long enough to qualify.
func seedClusterNotes(t *testing.T, repo *mocks.MockRepository) []domain.Note {
	t.Helper()
	specs := []struct {
		id, title string
		vec       []float64
	}{
		{"a1", "Gardening", []float64{1.0, 0.0, 0.05}},
		{"a2", "Garden soil notes", []float64{0.95, 0.1, 0.0}},
		{"a3", "Compost schedule", []float64{0.9, 0.05, 0.1}},
		{"b1", "Go generics", []float64{0.0, 1.0, 0.05}},
		{"b2", "Channel patterns", []float64{0.1, 0.95, 0.0}},
		{"b3", "Error wrapping conventions", []float64{0.05, 0.9, 0.1}},
	}
	notes := make([]domain.Note, 0, len(specs))
	for i, s := range specs {
		note := domain.Note{
			ID:        s.id,
			UserID:    testUser,
			Title:     s.title,
			RawText:   "Enough body text here to pass the content threshold.",
			Embedding: s.vec,
			X:         float64(i * 50),
			Y:         float64(i * 30),
			Weight:    1.0,
			Ephemeral: true,
		}
		require.NoError(t, repo.CreateNote(context.Background(), note))
		notes = append(notes, note)
	}
	return notes
}

func TestClampClusterCount(t *testing.T) {
	tests := []struct{ in, want int }{
		{1, 2}, {2, 2}, {3, 3}, {5, 5}, {50, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampClusterCount(tt.in), "clamp(%d)", tt.in)
	}
}

func TestClusterNotesInsufficientData(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedNote(t, repo, domain.Note{
		Title: "A", RawText: "Long enough body text to qualify here.",
		Embedding: []float64{1, 0},
	})
	seedNote(t, repo, domain.Note{
		Title: "B", RawText: "Another long enough body of text to qualify.",
		Embedding: []float64{0, 1},
	})

	result, err := svc.ClusterNotes(ctx, testUser, true)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
	assert.NotEmpty(t, result.Message)
	assert.Nil(t, result.Stats)
}

func TestClusterNotesShortTextDoesNotQualify(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedNote(t, repo, domain.Note{Title: "A", RawText: "Long enough body text to qualify here.", Embedding: []float64{1, 0}})
	seedNote(t, repo, domain.Note{Title: "B", RawText: "Another long enough body of text too.", Embedding: []float64{0, 1}})
	// Text at or under the threshold is skipped even with a vector.
	seedNote(t, repo, domain.Note{Title: "C", RawText: "too short", Embedding: []float64{0.5, 0.5}})

	result, err := svc.ClusterNotes(ctx, testUser, true)
	require.NoError(t, err)
	assert.Empty(t, result.Clusters)
	assert.NotEmpty(t, result.Message)
}

func TestClusterNotesPreviewLeavesNotesUntouched(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seeded := seedClusterNotes(t, repo)

	result, err := svc.ClusterNotes(ctx, testUser, true)
	require.NoError(t, err)
	require.NotEmpty(t, result.Clusters)

	seen := map[string]bool{}
	for _, cluster := range result.Clusters {
		for _, note := range cluster.Notes {
			assert.True(t, note.Preview)
			assert.False(t, seen[note.ID], "note %s appears in two clusters", note.ID)
			seen[note.ID] = true
		}
	}
	assert.Len(t, seen, len(seeded))

	for _, original := range seeded {
		stored, err := repo.FindNoteByID(ctx, testUser, original.ID)
		require.NoError(t, err)
		assert.Equal(t, original.X, stored.X)
		assert.Equal(t, original.Y, stored.Y)
		assert.Equal(t, original.Ephemeral, stored.Ephemeral)
	}
}

func TestClusterNotesCommitMovesAndClearsEphemeral(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedClusterNotes(t, repo)

	result, err := svc.ClusterNotes(ctx, testUser, false)
	require.NoError(t, err)
	require.NotEmpty(t, result.Clusters)

	for _, cluster := range result.Clusters {
		for _, note := range cluster.Notes {
			assert.False(t, note.Preview)
			stored, err := repo.FindNoteByID(ctx, testUser, note.ID)
			require.NoError(t, err)
			assert.InDelta(t, note.X, stored.X, 1e-9)
			assert.InDelta(t, note.Y, stored.Y, 1e-9)
			assert.False(t, stored.Ephemeral)
		}
	}
}

func TestClusterNotesLayoutGeometry(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedClusterNotes(t, repo)

	result, err := svc.ClusterNotes(context.Background(), testUser, true)
	require.NoError(t, err)

	for _, cluster := range result.Clusters {
		radius := clampRadius(float64(len(cluster.Notes)) * radiusPerMember)
		for _, note := range cluster.Notes {
			dx := note.X - cluster.CenterX
			dy := note.Y - cluster.CenterY
			assert.InDelta(t, radius, math.Hypot(dx, dy), 1e-9)
		}
	}
}

func TestClusterNotesReproducible(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedClusterNotes(t, repo)

	first, err := svc.ClusterNotes(ctx, testUser, true)
	require.NoError(t, err)
	second, err := svc.ClusterNotes(ctx, testUser, true)
	require.NoError(t, err)

	membership := func(r *ClusterResult) map[int][]string {
		m := map[int][]string{}
		for _, c := range r.Clusters {
			for _, n := range c.Notes {
				m[c.ID] = append(m[c.ID], n.ID)
			}
		}
		return m
	}
	assert.Equal(t, membership(first), membership(second))
}

func TestClusterNotesRejectsInvalidEmbeddings(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	seedNote(t, repo, domain.Note{Title: "A", RawText: "Long enough body text to qualify here.", Embedding: []float64{1, 0}})
	seedNote(t, repo, domain.Note{Title: "B", RawText: "Another long enough body of text too.", Embedding: []float64{0, 1}})
	seedNote(t, repo, domain.Note{Title: "C", RawText: "A third long enough body of text here.", Embedding: []float64{math.NaN(), 0.5}})

	_, err := svc.ClusterNotes(ctx, testUser, true)
	require.Error(t, err)
	assert.True(t, appErrors.IsClustering(err))
}

func TestClusterNotesNamesAndColors(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedClusterNotes(t, repo)

	result, err := svc.ClusterNotes(context.Background(), testUser, true)
	require.NoError(t, err)
	require.NotEmpty(t, result.Clusters)

	for rank, cluster := range result.Clusters {
		assert.Equal(t, rank+1, cluster.ID)
		assert.Equal(t, clusterPalette[rank%len(clusterPalette)], cluster.Color)

		// The name is the shortest non-empty member title.
		shortest := ""
		for _, n := range cluster.Notes {
			if n.Title == "" {
				continue
			}
			if shortest == "" || len(n.Title) < len(shortest) {
				shortest = n.Title
			}
		}
		require.NotEmpty(t, shortest)
		assert.Equal(t, shortest, cluster.Name)
	}
}

func TestClusterNameFallsBackToIndex(t *testing.T) {
	members := []domain.Note{{ID: "x"}, {ID: "y"}}
	assert.Equal(t, "Cluster 3", clusterName(members, 2))
}

func TestClusterNotesStats(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedClusterNotes(t, repo)

	result, err := svc.ClusterNotes(context.Background(), testUser, true)
	require.NoError(t, err)
	require.NotNil(t, result.Stats)

	stats := result.Stats
	assert.Equal(t, 6, stats.TotalNotes)
	assert.Equal(t, len(result.Clusters), stats.NumClusters)
	assert.InDelta(t, float64(6)/float64(stats.NumClusters), stats.AverageClusterSize, 1e-9)
	assert.LessOrEqual(t, stats.SmallestCluster, stats.LargestCluster)

	total := 0
	for _, c := range result.Clusters {
		total += len(c.Notes)
	}
	assert.Equal(t, 6, total)
}
