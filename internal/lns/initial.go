package lns

import (
	"time"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
)

// InitialSolution is the outcome of the one-shot first PP run (spec.md
// §4.7, C7): the sum of costs it produced and whether it was fully
// collision-free (success) or only a staging point for repair.
type InitialSolution struct {
	SumOfCosts     int
	CollidingPairs PairSet
	Success        bool
}

// Solve runs the prioritized planner once over every agent, in random
// order, accepting whatever it returns regardless of collisions
// (spec.md §4.7). It seeds the shared path table, the shared neighbor
// scratch struct, and the collision graph for the repair loop to take
// over from.
func Solve(p *Planner, cg *CollisionGraph, deadline time.Time) (*InitialSolution, *Neighbor) {
	n := newNeighbor()
	n.reset(p.reg.All())

	ok := p.RunPP(n, true, deadline)

	for pair := range n.CollidingPairs {
		cg.AddEdge(pair.A, pair.B)
	}

	return &InitialSolution{
		SumOfCosts:     n.SumOfCosts,
		CollidingPairs: n.CollidingPairs,
		Success:        ok,
	}, n
}

// snapshotPaths captures the current committed path for each id, for
// rollback bookkeeping ahead of a destroy-and-repair iteration.
func snapshotPaths(reg *Registry, ids []agent.ID) []agent.Path {
	out := make([]agent.Path, len(ids))
	for i, id := range ids {
		out[i] = reg.Get(id).Path
	}
	return out
}
