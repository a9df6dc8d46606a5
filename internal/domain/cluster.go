package domain

// ClusterStats summarizes a clustering run. Clusters themselves are
// ephemeral: they exist for a single invocation and are never persisted.
type ClusterStats struct {
	TotalNotes         int     `json:"totalNotes"`
	NumClusters        int     `json:"numClusters"`
	AverageClusterSize float64 `json:"averageClusterSize"`
	SmallestCluster    int     `json:"smallestCluster"`
	LargestCluster     int     `json:"largestCluster"`
}
