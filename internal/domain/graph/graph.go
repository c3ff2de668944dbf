// Package graph derives the directed interaction multigraph among post
// authors, mentioned usernames, and referenced post ids.
package graph

import (
	"github.com/okian/campwatch/internal/domain/model"
)

// edgeKey identifies one directed edge; parallel edges with different
// kinds stay distinct, identical tuples collapse into one edge whose
// Count carries the multiplicity.
type edgeKey struct {
	from, to, kind string
}

// Graph is a directed interaction multigraph backed by adjacency sets.
// Nodes are created lazily on first reference and kept in insertion
// order so output is deterministic.
type Graph struct {
	nodes     map[string]int // node -> dense index
	nodeOrder []string
	edges     map[edgeKey]int // edge -> multiplicity
	edgeOrder []edgeKey
	// undirected adjacency over node indices, for weak connectivity
	adj [][]int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]int),
		edges: make(map[edgeKey]int),
	}
}

// Build constructs the interaction graph from the post table. For each
// post the author key is the username when present, the author id
// otherwise; posts with neither contribute nothing. Mentions produce
// author->username edges of kind mention, references produce
// author->post-id edges of the reference's kind.
func Build(posts []model.Post) *Graph {
	g := New()
	for _, p := range posts {
		author := p.AuthorKey()
		if author == "" {
			continue
		}
		g.addNode(author)
		for _, mention := range p.Mentions {
			g.AddEdge(author, mention, model.RefKindMention)
		}
		for _, ref := range p.References {
			if ref.ID == "" {
				continue
			}
			g.AddEdge(author, ref.ID, ref.Kind)
		}
	}
	return g
}

func (g *Graph) addNode(id string) int {
	if idx, ok := g.nodes[id]; ok {
		return idx
	}
	idx := len(g.nodeOrder)
	g.nodes[id] = idx
	g.nodeOrder = append(g.nodeOrder, id)
	g.adj = append(g.adj, nil)
	return idx
}

// AddEdge records a directed edge, creating endpoints as needed.
// Repeating an identical (from, to, kind) tuple increments its Count.
func (g *Graph) AddEdge(from, to, kind string) {
	u := g.addNode(from)
	v := g.addNode(to)

	key := edgeKey{from: from, to: to, kind: kind}
	if _, ok := g.edges[key]; !ok {
		g.edgeOrder = append(g.edgeOrder, key)
		g.adj[u] = append(g.adj[u], v)
		g.adj[v] = append(g.adj[v], u)
	}
	g.edges[key]++
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodeOrder)
}

// EdgeCount returns the number of distinct (from, to, kind) edges.
func (g *Graph) EdgeCount() int {
	return len(g.edgeOrder)
}

// Nodes returns the node ids in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodeOrder))
	copy(out, g.nodeOrder)
	return out
}

// Edges returns the edge list in insertion order.
func (g *Graph) Edges() []model.Edge {
	out := make([]model.Edge, 0, len(g.edgeOrder))
	for _, key := range g.edgeOrder {
		out = append(out, model.Edge{
			From:  key.from,
			To:    key.to,
			Kind:  key.kind,
			Count: g.edges[key],
		})
	}
	return out
}

// Network returns the node/edge list projection of the graph.
func (g *Graph) Network() model.Network {
	return model.Network{Nodes: g.Nodes(), Edges: g.Edges()}
}

// Density returns edges / (nodes * (nodes - 1)) for the directed graph,
// or 0 when there are fewer than two nodes.
func (g *Graph) Density() float64 {
	n := len(g.nodeOrder)
	if n < 2 {
		return 0
	}
	return float64(len(g.edgeOrder)) / float64(n*(n-1))
}

// WeakComponents returns the number of connected components of the
// undirected projection of the graph.
func (g *Graph) WeakComponents() int {
	n := len(g.nodeOrder)
	if n == 0 {
		return 0
	}
	visited := make([]bool, n)
	components := 0
	stack := make([]int, 0, n)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		components++
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, v := range g.adj[u] {
				if !visited[v] {
					visited[v] = true
					stack = append(stack, v)
				}
			}
		}
	}
	return components
}
