package lns

import (
	"math/rand/v2"
	"time"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
	"github.com/elektrokombinacija/mapf-lns-het/internal/planner"
)

// Planner bundles the shared state a PP run needs: the map, the
// registry, the shared path table, the collision detector, and the
// single RNG the whole solve draws from (spec.md §5).
type Planner struct {
	m   *gridmap.Map
	reg *Registry
	pt  *PathTable
	det *Detector
	rng *rand.Rand
}

// NewPlanner builds the shared prioritized-planning driver.
func NewPlanner(m *gridmap.Map, reg *Registry, pt *PathTable, rng *rand.Rand) *Planner {
	return &Planner{m: m, reg: reg, pt: pt, det: NewDetector(pt, reg), rng: rng}
}

// RunPP replans Neighbor.Agents in random order against the frozen
// path table, per spec.md §4.4 (C4). firstRun selects the acceptance
// rule: the very first (initial-solution) call keeps whatever it
// produces (no rollback) and returns true only if every agent was
// planned with no colliding pair; every later call requires the
// resulting colliding-pair count not to exceed the pre-iteration
// count, and rolls back otherwise.
//
// deadline is the already-trimmed per-iteration budget (spec.md §5:
// T = min(time_limit-elapsed, replan_time_limit)).
func (p *Planner) RunPP(n *Neighbor, firstRun bool, deadline time.Time) bool {
	shuffled := append([]agent.ID(nil), n.Agents...)
	p.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	n.SumOfCosts = 0
	n.CollidingPairs = newPairSet()

	processed := 0
	inserted := make([]agent.ID, 0, len(shuffled))
	for _, id := range shuffled {
		if time.Now().After(deadline) {
			break
		}
		a := p.reg.Get(id)
		cons := []planner.Constraint{} // PP uses only the shared path table, no extra hard constraints
		path := planner.FindOptimalPath(p.m, a.Start, a.Goal, a.Heuristic, cons, occupancyView{p.pt, p.reg}, deadline)
		a.Path = path

		p.det.Detect(n.CollidingPairs, id, path)
		n.SumOfCosts += path.Cost()
		processed++

		if !firstRun && len(n.CollidingPairs) > len(n.OldCollidingPairs) {
			break // spec.md §4.4 step 2d: early abort, cannot improve
		}
		p.pt.Insert(id, path)
		inserted = append(inserted, id)
	}

	allProcessed := processed == len(shuffled)

	if firstRun {
		return allProcessed && len(n.CollidingPairs) == 0
	}

	if allProcessed && len(n.CollidingPairs) <= len(n.OldCollidingPairs) {
		return true
	}

	// Rejection rollback (spec.md §4.4 step 4): undo every insertion
	// made this run (only the ones actually inserted before the early
	// abort fired), then restore the original paths and cost.
	for _, id := range inserted {
		p.pt.Delete(id, p.reg.Get(id).Path)
	}
	if len(n.OldPaths) > 0 {
		for i, id := range n.Agents {
			p.reg.Get(id).Path = n.OldPaths[i]
			p.pt.Insert(id, n.OldPaths[i])
		}
		n.SumOfCosts = n.OldSumOfCosts
	}
	return false
}

// RunNoWaitProbe asks the planner for a no-wait shortest path from a's
// start to a's goal without touching the path table (used only by the
// target-based neighborhood generator to probe a route, spec.md
// §4.4's "no_wait variant").
func (p *Planner) RunNoWaitProbe(a *agent.Agent, goalTable []agent.ID, hasGoal []bool) (agent.Path, map[agent.ID]bool) {
	return planner.FindNoWaitPath(p.m, a.Start, a.Goal, a.Heuristic, goalTable, hasGoal)
}
