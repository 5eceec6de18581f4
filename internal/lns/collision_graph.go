package lns

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
)

// CollisionGraph is the undirected graph over agent ids, edge iff the
// pair currently collides (spec.md §3/§4.3, C3). Backed by
// gonum/graph/simple.UndirectedGraph so connected-component queries
// reuse gonum/graph/traverse's BFS instead of a hand-rolled one.
type CollisionGraph struct {
	g                 *simple.UndirectedGraph
	numCollidingPairs int
}

// NewCollisionGraph creates an empty collision graph pre-populated
// with one node per agent id (isolated nodes are not "edges", but the
// nodes must exist so From()/degree queries work for any id).
func NewCollisionGraph(n int) *CollisionGraph {
	g := simple.NewUndirectedGraph()
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(int64(i)))
	}
	return &CollisionGraph{g: g}
}

// HasEdge reports whether a and b currently collide.
func (cg *CollisionGraph) HasEdge(a, b agent.ID) bool {
	return cg.g.HasEdgeBetween(int64(a), int64(b))
}

// AddEdge records that a and b now collide. No-op if already present.
func (cg *CollisionGraph) AddEdge(a, b agent.ID) {
	if cg.HasEdge(a, b) {
		return
	}
	cg.g.SetEdge(simple.Edge{F: simple.Node(int64(a)), T: simple.Node(int64(b))})
	cg.numCollidingPairs++
}

// RemoveEdge records that a and b no longer collide. No-op if absent.
func (cg *CollisionGraph) RemoveEdge(a, b agent.ID) {
	if !cg.HasEdge(a, b) {
		return
	}
	cg.g.RemoveEdge(int64(a), int64(b))
	cg.numCollidingPairs--
}

// Degree returns the number of agents currently colliding with a.
func (cg *CollisionGraph) Degree(a agent.ID) int {
	return cg.g.From(int64(a)).Len()
}

// Neighbors returns the ids currently colliding with a.
func (cg *CollisionGraph) Neighbors(a agent.ID) []agent.ID {
	nodes := cg.g.From(int64(a))
	out := make([]agent.ID, 0, nodes.Len())
	for nodes.Next() {
		out = append(out, agent.ID(nodes.Node().ID()))
	}
	return out
}

// NumCollidingPairs returns (1/2) sum of degrees, maintained
// incrementally as edges are added/removed (spec.md P1).
func (cg *CollisionGraph) NumCollidingPairs() int { return cg.numCollidingPairs }

// VerticesWithEdges returns every agent id with non-empty adjacency,
// the pool the collision-based generator draws its seed from.
func (cg *CollisionGraph) VerticesWithEdges() []agent.ID {
	var out []agent.ID
	nodes := cg.g.Nodes()
	for nodes.Next() {
		id := agent.ID(nodes.Node().ID())
		if cg.Degree(id) > 0 {
			out = append(out, id)
		}
	}
	return out
}

// ConnectedComponent returns the set of agent ids reachable from seed
// via collision edges, via gonum/graph/traverse's breadth-first walk
// (spec.md §4.3's connected_component helper). Precondition: seed has
// degree >= 1.
func (cg *CollisionGraph) ConnectedComponent(seed agent.ID) map[agent.ID]bool {
	component := make(map[agent.ID]bool)
	bf := traverse.BreadthFirst{}
	bf.Walk(cg.g, simple.Node(int64(seed)), func(n graph.Node, _ int) bool {
		component[agent.ID(n.ID())] = true
		return false
	})
	return component
}
