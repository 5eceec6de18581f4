// Package planner implements the low-level single-agent planner the
// LNS repair loop consumes through a narrow interface (spec.md §6).
// Its internals — space-time A* over the grid — are not part of the
// spec's core; only the two entrypoints (FindOptimalPath,
// FindNoWaitPath) are.
package planner

import (
	"container/heap"
	"time"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

// Constraint forbids an agent from being at a cell at a time (a
// vertex constraint), or from traversing a specific edge between
// t-1 and t (an edge constraint). The GCBS black-box replanner's
// constraint tree issues vertex constraints only.
type Constraint struct {
	Cell   gridmap.Cell
	T      int
	IsEdge bool
	From   gridmap.Cell // edge constraint: cell at t-1
	To     gridmap.Cell // edge constraint: cell at t
}

// Occupancy is the read-only view of a path table the planner treats
// as a soft, then-if-unavoidable hard, set of obstacles: occupied
// cells are avoided when a conflict-free alternative exists, but a
// path is still returned when none does (spec.md §4.4 step 2a).
type Occupancy interface {
	Occupants(c gridmap.Cell, t int) []agent.ID
	Makespan() int
	// GoalAgent returns the agent whose committed goal is c and whose
	// path has already ended by time t, or (0, false) if none.
	GoalAgent(c gridmap.Cell, t int) (agent.ID, bool)
}

// emptyOccupancy is the Occupancy for callers that have no path table
// (the planner's own tests use it).
type emptyOccupancy struct{}

func (emptyOccupancy) Occupants(gridmap.Cell, int) []agent.ID       { return nil }
func (emptyOccupancy) Makespan() int                                { return 0 }
func (emptyOccupancy) GoalAgent(gridmap.Cell, int) (agent.ID, bool) { return 0, false }

// Empty is the zero-value Occupancy: no agents inserted anywhere.
var Empty Occupancy = emptyOccupancy{}

// node is a space-time A* search node.
type node struct {
	cell     gridmap.Cell
	t        int
	g        int
	f        int
	parent   *node
	index    int
	softHits int // number of soft-occupancy conflicts incurred so far
}

type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	// Fewer soft conflicts first: the planner avoids path-table
	// occupants whenever a less-conflicting route exists, and cost
	// only breaks ties among equally conflicting nodes.
	if h[i].softHits != h[j].softHits {
		return h[i].softHits < h[j].softHits
	}
	return h[i].f < h[j].f
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *nodeHeap) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

type state struct {
	cell gridmap.Cell
	t    int
}

func violatesHard(cons []Constraint, c gridmap.Cell, t int, from gridmap.Cell) bool {
	for _, k := range cons {
		if k.IsEdge {
			if k.T == t && k.From == from && k.To == c {
				return true
			}
			continue
		}
		if k.Cell == c && k.T == t {
			return true
		}
	}
	return false
}

// maxSearchHorizon caps the search horizon (otherwise the occupancy's
// makespan plus the map size plus one), so a planner call on a
// disconnected or fully caged request terminates instead of growing
// the open list without bound.
const maxSearchHorizon = 4096

// FindOptimalPath runs space-time A* from start to goal, respecting
// hard constraints exactly and treating occ as a soft obstacle set:
// it prefers paths that avoid current occupants but will still return
// a (possibly colliding) path rather than fail, matching spec.md
// §4.4's "treats the path table as soft for conflict-detection
// purposes; hard only when no alternative exists."
//
// Once deadline passes, the search stops and the path comes from
// bruteForcePath, which replans from start ignoring occupancy; callers
// must treat a path returned after the deadline as still valid (the
// spec's cooperative cancellation is polled, not preemptive).
func FindOptimalPath(m *gridmap.Map, start, goal gridmap.Cell, h agent.Heuristic, cons []Constraint, occ Occupancy, deadline time.Time) agent.Path {
	horizon := occ.Makespan() + m.MapSize() + 1
	if horizon > maxSearchHorizon {
		horizon = maxSearchHorizon
	}

	open := &nodeHeap{}
	heap.Init(open)
	start0 := &node{cell: start, t: 0, g: 0, f: h(start)}
	heap.Push(open, start0)
	best := make(map[state]*node)
	best[state{start, 0}] = start0

	var fallback *node // closest-to-goal node seen, for deadline/horizon exhaustion
	checkEvery := 256
	expansions := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if fallback == nil || h(cur.cell) < h(fallback.cell) {
			fallback = cur
		}
		if cur.cell == goal {
			return reconstruct(cur)
		}
		if b, ok := best[state{cur.cell, cur.t}]; ok && b != cur {
			continue // stale entry
		}
		if cur.t >= horizon {
			continue
		}

		expansions++
		if expansions%checkEvery == 0 && time.Now().After(deadline) {
			break
		}

		nextT := cur.t + 1
		candidates := append([]gridmap.Cell{cur.cell}, m.Neighbors(cur.cell)...)
		for _, nc := range candidates {
			if violatesHard(cons, nc, nextT, cur.cell) {
				continue
			}
			soft := len(occ.Occupants(nc, nextT))
			if _, ok := occ.GoalAgent(nc, nextT); ok {
				soft++ // entering a cell where another agent has already stopped
			}
			if nc != cur.cell {
				// Edge-swap soft penalty: someone at nc at t-1 who is at cur at t.
				for _, other := range occ.Occupants(nc, cur.t) {
					for _, back := range occ.Occupants(cur.cell, nextT) {
						if other == back {
							soft++
						}
					}
				}
			}
			g := cur.g + 1
			st := state{nc, nextT}
			// g == t for every node, so nodes at one state differ only in conflicts.
			if b, ok := best[st]; ok && b.softHits <= cur.softHits+soft {
				continue
			}
			n := &node{
				cell:     nc,
				t:        nextT,
				g:        g,
				f:        g + h(nc),
				parent:   cur,
				softHits: cur.softHits + soft,
			}
			best[st] = n
			heap.Push(open, n)
		}
	}

	if fallback != nil {
		// A goal node is returned directly; otherwise the planner
		// replans from start ignoring soft occupancy (bruteForcePath
		// below), so callers always get *a* path (spec.md §4.4:
		// "expected to return some path even if it introduces
		// conflicts").
		if fallback.cell == goal {
			return reconstruct(fallback)
		}
	}
	return bruteForcePath(m, start, goal, cons)
}

// bruteForcePath finds any hard-constraint-respecting path, ignoring
// occupancy entirely; used when the soft-aware search above stops at
// its deadline or is exhausted without reaching the goal (the latter
// should not happen on a connected map within maxSearchHorizon, but
// this keeps the planner total).
func bruteForcePath(m *gridmap.Map, start, goal gridmap.Cell, cons []Constraint) agent.Path {
	open := &nodeHeap{}
	heap.Init(open)
	h := agent.ManhattanHeuristic(goal, m)
	heap.Push(open, &node{cell: start, t: 0, g: 0, f: h(start)})
	best := map[state]int{{start, 0}: 0}
	horizon := m.MapSize() * 2
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.cell == goal {
			return reconstruct(cur)
		}
		if cur.t >= horizon {
			continue
		}
		nextT := cur.t + 1
		for _, nc := range append([]gridmap.Cell{cur.cell}, m.Neighbors(cur.cell)...) {
			if violatesHard(cons, nc, nextT, cur.cell) {
				continue
			}
			g := cur.g + 1
			st := state{nc, nextT}
			if bg, ok := best[st]; ok && bg <= g {
				continue
			}
			best[st] = g
			heap.Push(open, &node{cell: nc, t: nextT, g: g, f: g + h(nc), parent: cur})
		}
	}
	return nil
}

func reconstruct(n *node) agent.Path {
	var path agent.Path
	for c := n; c != nil; c = c.parent {
		path = append(agent.Path{{Loc: c.cell, T: c.t}}, path...)
	}
	return path
}

// FindNoWaitPath returns the shortest path from start to goal that
// never waits (every step strictly moves), and populates targets with
// every agent id whose committed goal lies on the returned route
// (spec.md §4.5.2 / §6's A_target collection). goalTable maps a cell
// to the agent whose goal is there; hasGoal marks which cells have one
// (goalTable is meaningless where hasGoal is false).
func FindNoWaitPath(m *gridmap.Map, start, goal gridmap.Cell, h agent.Heuristic, goalTable []agent.ID, hasGoal []bool) (path agent.Path, targets map[agent.ID]bool) {
	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{cell: start, t: 0, g: 0, f: h(start)})
	best := map[state]int{{start, 0}: 0}
	horizon := m.MapSize() * 2

	var goalNode *node
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.cell == goal {
			goalNode = cur
			break
		}
		if cur.t >= horizon {
			continue
		}
		nextT := cur.t + 1
		for _, nc := range m.Neighbors(cur.cell) { // no-wait: exclude staying in place
			g := cur.g + 1
			st := state{nc, nextT}
			if bg, ok := best[st]; ok && bg <= g {
				continue
			}
			best[st] = g
			heap.Push(open, &node{cell: nc, t: nextT, g: g, f: g + h(nc), parent: cur})
		}
	}
	if goalNode == nil {
		return nil, nil
	}
	path = reconstruct(goalNode)
	targets = make(map[agent.ID]bool)
	for _, step := range path {
		if int(step.Loc) < len(hasGoal) && hasGoal[step.Loc] {
			targets[goalTable[step.Loc]] = true
		}
	}
	return path, targets
}
