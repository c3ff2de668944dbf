package similarity

import (
	"github.com/okian/campwatch/internal/domain/model"
)

// DefaultThreshold is the cosine similarity above which two posts are
// considered near-duplicates.
const DefaultThreshold = 0.8

// Engine clusters posts by pairwise text similarity.
//
// The full pairwise matrix is quadratic in batch size. Batches are
// bounded to a few hundred posts by the collection stage; larger batches
// need a blocking or approximate-nearest-neighbor strategy instead of
// this engine.
type Engine struct {
	threshold float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithThreshold sets the similarity threshold in [0,1].
func WithThreshold(t float64) Option {
	return func(e *Engine) {
		if t >= 0 && t <= 1 {
			e.threshold = t
		}
	}
}

// NewEngine creates a clustering engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Cluster groups posts into near-duplicate clusters: TF-IDF vectors per
// normalized text, an undirected edge wherever pairwise cosine meets the
// threshold, connected components via union-find, and dense cluster ids
// assigned in discovery order (first member index).
//
// Every post is assigned a cluster; a post with empty normalized text
// never joins another post and comes back as its own singleton. An empty
// input yields an empty result.
func (e *Engine) Cluster(posts []model.Post) ([]model.Cluster, map[string]int) {
	n := len(posts)
	if n == 0 {
		return nil, map[string]int{}
	}

	docs := make([]string, n)
	for i, p := range posts {
		docs[i] = p.NormalizedText
	}
	vectors := vectorize(docs)

	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		if len(vectors[i]) == 0 {
			continue // zero vector: similarity 0 to everything
		}
		for j := i + 1; j < n; j++ {
			if cosine(vectors[i], vectors[j]) >= e.threshold {
				uf.union(i, j)
			}
		}
	}

	assignment := make(map[string]int, n)
	rootToCluster := make(map[int]int)
	var clusters []model.Cluster
	for i, p := range posts {
		root := uf.find(i)
		cid, ok := rootToCluster[root]
		if !ok {
			cid = len(clusters)
			rootToCluster[root] = cid
			clusters = append(clusters, model.Cluster{ID: cid})
		}
		clusters[cid].PostIDs = append(clusters[cid].PostIDs, p.ID)
		assignment[p.ID] = cid
	}
	return clusters, assignment
}

// unionFind is a disjoint-set forest with path compression and union by
// size, sized once for the batch.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
