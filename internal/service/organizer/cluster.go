package organizer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"messynotes-backend/internal/domain"
	appErrors "messynotes-backend/pkg/errors"

	"go.uber.org/zap"
)

// Clustering parameters. The seed is fixed so identical inputs reproduce
// identical assignments; the retry path drops both the seed and the ++
// initialization.
const (
	minClusterInput  = 3
	minClusterText   = 20
	minClusters      = 2
	maxClusters      = 5
	kmeansSeed       = 42
	kmeansMaxIter    = 100
	kmeansTol        = 1e-4
	radiusPerMember  = 40.0
	minClusterRadius = 100.0
	maxClusterRadius = 250.0
)

// clusterPalette is cycled by size rank when coloring clusters.
var clusterPalette = []string{
	"#8b5cf6", "#06b6d4", "#22c55e", "#f59e0b", "#ef4444",
}

// ClusterNote is one member in a clustering response. X and Y are the
// proposed positions; Preview reports whether they were left uncommitted.
type ClusterNote struct {
	ID      string
	Title   string
	X       float64
	Y       float64
	Preview bool
}

// ClusterView is one computed cluster with its proposed layout.
type ClusterView struct {
	ID      int
	Name    string
	Notes   []ClusterNote
	CenterX float64
	CenterY float64
	Color   string
}

// ClusterResult is the outcome of a clustering run. When fewer than three
// notes qualify, Message is set and Clusters is empty; that is a normal
// result, not an error.
type ClusterResult struct {
	Clusters []ClusterView
	Stats    *domain.ClusterStats
	Message  string
}

// ClusterNotes groups the user's qualifying notes into k semantic clusters
// and, unless preview is set, commits the proposed circle layout around
// each cluster's positional centroid.
//
// Re-running after a committed pass is not idempotent: centroids derive
// from the members' current stored positions, which the previous commit
// moved. That divergence is intended.
func (s *service) ClusterNotes(ctx context.Context, userID string, preview bool) (*ClusterResult, error) {
	notes, err := s.repo.ListActiveNotes(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to load notes for clustering")
	}

	qualifying := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		if n.HasEmbedding() && len(n.RawText) > minClusterText {
			qualifying = append(qualifying, n)
		}
	}

	n := len(qualifying)
	if n < minClusterInput {
		return &ClusterResult{
			Clusters: []ClusterView{},
			Message:  fmt.Sprintf("Not enough notes to organize yet: %d of the required %d have enough content.", n, minClusterInput),
		}, nil
	}

	vectors := make([][]float64, n)
	for i := range qualifying {
		vectors[i] = qualifying[i].Embedding
		for _, x := range vectors[i] {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return nil, appErrors.NewClustering("embeddings contain invalid values; regenerate embeddings and retry", nil)
			}
		}
	}

	k := clampClusterCount(n / 2)
	assign, err := s.clusterWithRetry(vectors, k)
	if err != nil {
		return nil, err
	}

	groups := groupByCluster(qualifying, assign, k)
	views := s.buildClusterViews(groups, preview)

	if !preview {
		if err := s.commitLayout(ctx, userID, views); err != nil {
			// Positions already written stay written; there is no rollback.
			return nil, appErrors.Wrap(err, "cluster layout commit interrupted")
		}
		s.invalidateUser(userID)
	}

	return &ClusterResult{
		Clusters: views,
		Stats:    clusterStats(n, views),
	}, nil
}

// clusterWithRetry runs the seeded k-means++ pass and validates the
// assignment; on failure it retries once with plain unseeded
// initialization before surfacing a clustering error.
func (s *service) clusterWithRetry(vectors [][]float64, k int) ([]int, error) {
	assign, err := runKMeans(vectors, k, kMeansOptions{
		seed:     kmeansSeed,
		plusPlus: true,
		maxIter:  kmeansMaxIter,
		tol:      kmeansTol,
	})
	if err == nil {
		err = validateAssignment(assign, len(vectors), k)
	}
	if err == nil {
		return assign, nil
	}

	s.logger.Warn("k-means failed, retrying with default initialization", zap.Error(err))

	assign, retryErr := runKMeans(vectors, k, kMeansOptions{
		seed:     s.now().UnixNano(),
		plusPlus: false,
		maxIter:  kmeansMaxIter,
		tol:      kmeansTol,
	})
	if retryErr == nil {
		retryErr = validateAssignment(assign, len(vectors), k)
	}
	if retryErr != nil {
		return nil, appErrors.NewClustering("clustering failed", retryErr)
	}
	return assign, nil
}

// validateAssignment checks that every input landed in exactly one known
// cluster.
func validateAssignment(assign []int, n, k int) error {
	if len(assign) != n {
		return fmt.Errorf("assignment covers %d of %d notes", len(assign), n)
	}
	for i, c := range assign {
		if c < 0 || c >= k {
			return fmt.Errorf("note %d assigned to unknown cluster %d", i, c)
		}
	}
	return nil
}

func groupByCluster(notes []domain.Note, assign []int, k int) [][]domain.Note {
	groups := make([][]domain.Note, k)
	for i := range notes {
		c := assign[i]
		groups[c] = append(groups[c], notes[i])
	}

	// Empty clusters are simply absent from the output.
	kept := groups[:0]
	for _, g := range groups {
		if len(g) > 0 {
			kept = append(kept, g)
		}
	}

	// Largest first; ties break on the first member's id for stability.
	sort.SliceStable(kept, func(i, j int) bool {
		if len(kept[i]) != len(kept[j]) {
			return len(kept[i]) > len(kept[j])
		}
		return kept[i][0].ID < kept[j][0].ID
	})
	return kept
}

// buildClusterViews lays each cluster's members evenly around a circle
// centered at the positional centroid of the members' current stored
// coordinates.
func (s *service) buildClusterViews(groups [][]domain.Note, preview bool) []ClusterView {
	views := make([]ClusterView, 0, len(groups))
	for rank, members := range groups {
		var cx, cy float64
		for i := range members {
			cx += members[i].X
			cy += members[i].Y
		}
		cx /= float64(len(members))
		cy /= float64(len(members))

		radius := clampRadius(float64(len(members)) * radiusPerMember)
		step := 2 * math.Pi / float64(len(members))

		view := ClusterView{
			ID:      rank + 1,
			Name:    clusterName(members, rank),
			CenterX: cx,
			CenterY: cy,
			Color:   clusterPalette[rank%len(clusterPalette)],
		}
		for i := range members {
			angle := float64(i) * step
			view.Notes = append(view.Notes, ClusterNote{
				ID:      members[i].ID,
				Title:   members[i].Title,
				X:       cx + radius*math.Cos(angle),
				Y:       cy + radius*math.Sin(angle),
				Preview: preview,
			})
		}
		views = append(views, view)
	}
	return views
}

// commitLayout persists the proposed positions one member at a time and
// clears the ephemeral flag on every repositioned note.
func (s *service) commitLayout(ctx context.Context, userID string, views []ClusterView) error {
	for _, view := range views {
		for _, note := range view.Notes {
			if err := s.repo.UpdateNotePosition(ctx, userID, note.ID, note.X, note.Y, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// clusterName labels a cluster with its shortest member title, the most
// tag-like of the members' names.
func clusterName(members []domain.Note, rank int) string {
	name := ""
	for i := range members {
		t := members[i].Title
		if t == "" {
			continue
		}
		if name == "" || len(t) < len(name) {
			name = t
		}
	}
	if name == "" {
		return fmt.Sprintf("Cluster %d", rank+1)
	}
	return name
}

func clusterStats(totalNotes int, views []ClusterView) *domain.ClusterStats {
	stats := &domain.ClusterStats{
		TotalNotes:  totalNotes,
		NumClusters: len(views),
	}
	if len(views) == 0 {
		return stats
	}

	smallest := math.MaxInt
	largest := 0
	for _, v := range views {
		size := len(v.Notes)
		if size < smallest {
			smallest = size
		}
		if size > largest {
			largest = size
		}
	}
	stats.SmallestCluster = smallest
	stats.LargestCluster = largest
	stats.AverageClusterSize = float64(totalNotes) / float64(len(views))
	return stats
}

func clampClusterCount(k int) int {
	if k < minClusters {
		return minClusters
	}
	if k > maxClusters {
		return maxClusters
	}
	return k
}

func clampRadius(r float64) float64 {
	if r < minClusterRadius {
		return minClusterRadius
	}
	if r > maxClusterRadius {
		return maxClusterRadius
	}
	return r
}
