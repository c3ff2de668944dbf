package model

import "time"

// TimeBucket is one minute-granularity slot of the volume series.
type TimeBucket struct {
	BucketStart time.Time `json:"bucket"`
	Count       int       `json:"count"`
	ZScore      float64   `json:"zscore"`
	IsAnomaly   bool      `json:"anomaly"`
}

// Cluster is a maximal set of posts connected by pairwise similarity.
// IDs are dense integers assigned in discovery order.
type Cluster struct {
	ID      int      `json:"cluster_id"`
	PostIDs []string `json:"member_post_ids"`
}

// Edge is one directed interaction edge. Identical (From, To, Kind)
// tuples are collapsed into a single edge carrying their multiplicity
// in Count.
type Edge struct {
	From  string `json:"source"`
	To    string `json:"target"`
	Kind  string `json:"kind"`
	Count int    `json:"weight"`
}

// Network is the node/edge list projection of the interaction graph.
type Network struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`
}

// Summary is the one-row reduction over all pipeline outputs.
type Summary struct {
	TotalTweets         int     `json:"total_tweets"`
	UniqueUsers         int     `json:"unique_users"`
	AnomalousMinutes    int     `json:"anomalous_minutes"`
	LargestClusterSize  int     `json:"largest_cluster_size"`
	NetworkNodes        int     `json:"network_nodes"`
	NetworkEdges        int     `json:"network_edges"`
	NetworkDensity      float64 `json:"network_density"`
	ConnectedComponents int     `json:"connected_components"`
}

// Query describes one analysis request against the data source.
type Query struct {
	Text       string  `json:"query"`
	Lang       string  `json:"lang,omitempty"`
	Minutes    int     `json:"minutes"`
	MaxResults int     `json:"max_results"`
	Threshold  float64 `json:"similarity_threshold"`
}

// Job is one queued analysis submission.
type Job struct {
	ID          string    `json:"id"`
	Query       Query     `json:"query"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Report bundles every artifact produced by a single pipeline invocation.
// Reports are immutable once built.
type Report struct {
	RunID             string       `json:"run_id"`
	Query             Query        `json:"query"`
	StartedAt         time.Time    `json:"started_at"`
	FinishedAt        time.Time    `json:"finished_at"`
	DuplicatesDropped int          `json:"duplicates_dropped"`
	Posts             []Post       `json:"posts"`
	Buckets           []TimeBucket `json:"buckets"`
	Clusters          []Cluster    `json:"clusters"`
	Network           Network      `json:"network"`
	Summary           Summary      `json:"summary"`
}

// ReportMeta is the listing shape for stored reports.
type ReportMeta struct {
	RunID      string    `json:"run_id"`
	Query      string    `json:"query"`
	FinishedAt time.Time `json:"finished_at"`
	TotalPosts int       `json:"total_posts"`
}

// Meta returns the listing shape for the report.
func (r Report) Meta() ReportMeta {
	return ReportMeta{
		RunID:      r.RunID,
		Query:      r.Query.Text,
		FinishedAt: r.FinishedAt,
		TotalPosts: r.Summary.TotalTweets,
	}
}
