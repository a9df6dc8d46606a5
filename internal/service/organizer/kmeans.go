package organizer

import (
	"fmt"
	"math"
	"math/rand"
)

// kMeansOptions controls a single k-means run.
type kMeansOptions struct {
	seed     int64
	plusPlus bool
	maxIter  int
	tol      float64
}

// runKMeans partitions vectors into k clusters and returns one assignment
// per input vector. With plusPlus it uses k-means++ seeding; otherwise
// centroids start from uniformly sampled distinct vectors. The same seed
// and input always yield the same assignment.
func runKMeans(vectors [][]float64, k int, opts kMeansOptions) ([]int, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("no vectors to cluster")
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("invalid cluster count %d for %d vectors", k, n)
	}
	dim := len(vectors[0])
	for i := range vectors {
		if len(vectors[i]) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(vectors[i]), dim)
		}
	}

	rng := rand.New(rand.NewSource(opts.seed))

	var centroids [][]float64
	if opts.plusPlus {
		centroids = seedPlusPlus(vectors, k, rng)
	} else {
		centroids = seedRandom(vectors, k, rng)
	}

	assign := make([]int, n)
	for iter := 0; iter < opts.maxIter; iter++ {
		changed := false
		for i := range vectors {
			best := nearestCentroid(vectors[i], centroids)
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		next := recomputeCentroids(vectors, assign, k, dim, rng)
		shift := maxCentroidShift(centroids, next)
		centroids = next

		if !changed && iter > 0 {
			break
		}
		if shift < opts.tol {
			break
		}
	}

	return assign, nil
}

// seedPlusPlus implements k-means++ initialization: the first centroid is
// sampled uniformly, each subsequent one proportionally to squared distance
// from the nearest centroid chosen so far.
func seedPlusPlus(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVector(vectors[rng.Intn(n)]))

	dists := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i := range vectors {
			d := squaredDistance(vectors[i], centroids[len(centroids)-1])
			if len(centroids) == 1 || d < dists[i] {
				dists[i] = d
			}
			total += dists[i]
		}

		if total == 0 {
			// All remaining points coincide with a centroid; fall back to
			// uniform sampling to fill the remaining slots.
			centroids = append(centroids, cloneVector(vectors[rng.Intn(n)]))
			continue
		}

		target := rng.Float64() * total
		chosen := n - 1
		var cum float64
		for i := range dists {
			cum += dists[i]
			if cum >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, cloneVector(vectors[chosen]))
	}
	return centroids
}

// seedRandom picks k distinct vectors as starting centroids.
func seedRandom(vectors [][]float64, k int, rng *rand.Rand) [][]float64 {
	perm := rng.Perm(len(vectors))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = cloneVector(vectors[perm[i]])
	}
	return centroids
}

// recomputeCentroids averages each cluster's members. An empty cluster is
// reseeded from a random vector so k centroids always survive.
func recomputeCentroids(vectors [][]float64, assign []int, k, dim int, rng *rand.Rand) [][]float64 {
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := 0; c < k; c++ {
		sums[c] = make([]float64, dim)
	}
	for i := range vectors {
		c := assign[i]
		counts[c]++
		for d := 0; d < dim; d++ {
			sums[c][d] += vectors[i][d]
		}
	}

	centroids := make([][]float64, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			centroids[c] = cloneVector(vectors[rng.Intn(len(vectors))])
			continue
		}
		centroids[c] = sums[c]
		for d := 0; d < dim; d++ {
			centroids[c][d] /= float64(counts[c])
		}
	}
	return centroids
}

func nearestCentroid(v []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c := range centroids {
		if d := squaredDistance(v, centroids[c]); d < bestDist {
			best = c
			bestDist = d
		}
	}
	return best
}

func maxCentroidShift(prev, next [][]float64) float64 {
	var shift float64
	for c := range prev {
		if d := math.Sqrt(squaredDistance(prev[c], next[c])); d > shift {
			shift = d
		}
	}
	return shift
}

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVector(v []float64) []float64 {
	return append([]float64(nil), v...)
}
