// Package assoc implements the weighted association graph linking memories
// that are recalled together.
package assoc

import "sort"

// Defaults for graph construction and strengthening.
const (
	DefaultDecayRate   = 0.05
	DefaultMaxStrength = 1.0
	DefaultAmount      = 0.1
)

// Edges decayed below epsilon are removed outright.
const epsilon = 0.01

// Association is a weighted neighbor of a node.
type Association struct {
	ID       string  `json:"id"`
	Strength float64 `json:"strength"`
}

// Graph is an undirected weighted graph over entry ids, kept as a sparse
// adjacency map. Every mutation writes both directions of an edge, so
// Strength(a, b) == Strength(b, a) holds after every call.
type Graph struct {
	decayRate   float64
	maxStrength float64
	nodes       map[string]map[string]float64
}

// New creates an empty graph. Non-positive parameters fall back to defaults.
func New(decayRate, maxStrength float64) *Graph {
	if decayRate <= 0 {
		decayRate = DefaultDecayRate
	}
	if maxStrength <= 0 {
		maxStrength = DefaultMaxStrength
	}
	return &Graph{
		decayRate:   decayRate,
		maxStrength: maxStrength,
		nodes:       make(map[string]map[string]float64),
	}
}

// Strengthen adds amount to the edge between a and b, clamping each
// direction to maxStrength. Self-edges are ignored.
func (g *Graph) Strengthen(a, b string, amount float64) {
	if a == b {
		return
	}
	g.bump(a, b, amount)
	g.bump(b, a, amount)
}

func (g *Graph) bump(from, to string, amount float64) {
	w := g.nodes[from][to] + amount
	if w > g.maxStrength {
		w = g.maxStrength
	}
	g.set(from, to, w)
}

// Strength returns the edge weight between a and b, 0 if absent.
func (g *Graph) Strength(a, b string) float64 {
	return g.nodes[a][b]
}

// StrongestAssociations returns up to limit neighbors of id ordered by
// weight descending; ties order by neighbor id so results are stable.
// A limit <= 0 returns all neighbors.
func (g *Graph) StrongestAssociations(id string, limit int) []Association {
	adj := g.nodes[id]
	if len(adj) == 0 {
		return nil
	}
	out := make([]Association, 0, len(adj))
	for n, w := range adj {
		out = append(out, Association{ID: n, Strength: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Decay multiplies every edge weight by (1 - decayRate) and removes edges
// that fall below epsilon. Nodes left without edges are dropped.
func (g *Graph) Decay() {
	for id, adj := range g.nodes {
		for n, w := range adj {
			w *= 1 - g.decayRate
			if w < epsilon {
				delete(adj, n)
				continue
			}
			adj[n] = w
		}
		if len(adj) == 0 {
			delete(g.nodes, id)
		}
	}
}

// CoActivate strengthens every unordered pair of ids by the default amount.
// This is how memories recalled together become linked.
func (g *Graph) CoActivate(ids []string) {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			g.Strengthen(ids[i], ids[j], DefaultAmount)
		}
	}
}

// RemoveNode deletes id's adjacency and strips id from every neighbor,
// keeping the graph symmetric.
func (g *Graph) RemoveNode(id string) {
	adj, ok := g.nodes[id]
	if !ok {
		return
	}
	delete(g.nodes, id)
	for n := range adj {
		if peer := g.nodes[n]; peer != nil {
			delete(peer, id)
			if len(peer) == 0 {
				delete(g.nodes, n)
			}
		}
	}
}

// Nodes returns the number of nodes with at least one edge.
func (g *Graph) Nodes() int { return len(g.nodes) }

// Edges returns the number of undirected edges.
func (g *Graph) Edges() int {
	total := 0
	for _, adj := range g.nodes {
		total += len(adj)
	}
	return total / 2
}

// Snapshot copies the graph into the plain nested map used by persistence.
func (g *Graph) Snapshot() map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(g.nodes))
	for id, adj := range g.nodes {
		m := make(map[string]float64, len(adj))
		for n, w := range adj {
			m[n] = w
		}
		out[id] = m
	}
	return out
}

// Restore replaces the graph's edges with the given nested map, copying so
// later mutations don't alias the caller's data. The input is not trusted:
// both directions of each surviving edge are written (the stronger one when
// they disagree, clamped to maxStrength; self and non-positive edges are
// dropped) so Strength stays symmetric for any loaded document.
func (g *Graph) Restore(nodes map[string]map[string]float64) {
	g.nodes = make(map[string]map[string]float64, len(nodes))
	for id, adj := range nodes {
		for n, w := range adj {
			if n == id || w <= 0 {
				continue
			}
			if w > g.maxStrength {
				w = g.maxStrength
			}
			if w > g.nodes[id][n] {
				g.set(id, n, w)
				g.set(n, id, w)
			}
		}
	}
}

func (g *Graph) set(from, to string, w float64) {
	adj := g.nodes[from]
	if adj == nil {
		adj = make(map[string]float64)
		g.nodes[from] = adj
	}
	adj[to] = w
}
