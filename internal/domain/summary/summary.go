// Package summary reduces the pipeline outputs into a single
// fixed-shape report row.
package summary

import (
	"math"

	"github.com/okian/campwatch/internal/domain/graph"
	"github.com/okian/campwatch/internal/domain/model"
)

// densityDecimals is the rounding applied to network density in the
// summary row.
const densityDecimals = 1e5

// Build computes the one-row summary over the post table, the time
// bucket series, the cluster set, and the interaction graph. Every
// input may be empty; the result is then zero-valued, never an error.
func Build(posts []model.Post, buckets []model.TimeBucket, clusters []model.Cluster, g *graph.Graph) model.Summary {
	users := make(map[string]struct{})
	for _, p := range posts {
		if p.Username != "" {
			users[p.Username] = struct{}{}
		}
	}

	anomalies := 0
	for _, b := range buckets {
		if b.IsAnomaly {
			anomalies++
		}
	}

	largest := 0
	for _, c := range clusters {
		if len(c.PostIDs) > largest {
			largest = len(c.PostIDs)
		}
	}

	s := model.Summary{
		TotalTweets:        len(posts),
		UniqueUsers:        len(users),
		AnomalousMinutes:   anomalies,
		LargestClusterSize: largest,
	}
	if g != nil {
		s.NetworkNodes = g.NodeCount()
		s.NetworkEdges = g.EdgeCount()
		s.NetworkDensity = math.Round(g.Density()*densityDecimals) / densityDecimals
		s.ConnectedComponents = g.WeakComponents()
	}
	return s
}
