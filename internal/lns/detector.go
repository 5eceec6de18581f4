package lns

import (
	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
)

// Pair is an unordered colliding-agent pair, always stored with the
// lower id first so two detections of the same collision compare equal.
type Pair struct {
	A, B agent.ID
}

func makePair(a, b agent.ID) Pair {
	if a < b {
		return Pair{a, b}
	}
	return Pair{b, a}
}

// PairSet is a deduplicated set of colliding pairs.
type PairSet map[Pair]struct{}

func newPairSet() PairSet { return make(PairSet) }

func (s PairSet) add(a, b agent.ID) { s[makePair(a, b)] = struct{}{} }

// Detector enumerates colliding pairs between a candidate path and the
// agents currently committed to the path table (spec.md §4.2, C2).
// The candidate agent must NOT itself be inserted in pt when Detect is
// called.
type Detector struct {
	pt  *PathTable
	reg *Registry
}

// NewDetector builds a detector bound to a path table and agent registry.
func NewDetector(pt *PathTable, reg *Registry) *Detector {
	return &Detector{pt: pt, reg: reg}
}

// Detect adds every pair (agentID, other) that collides with path to
// dst. Checks, per spec.md §4.2: vertex conflicts, edge (swap)
// conflicts, target-of-other conflicts along the path, and the
// symmetric "my target is traversed by others after I've stopped"
// sweep to the table's makespan.
func (d *Detector) Detect(dst PairSet, agentID agent.ID, path agent.Path) {
	if len(path) < 2 {
		if len(path) == 1 {
			d.detectStoppedTarget(dst, agentID, path)
		}
		return
	}
	for t := 1; t < len(path); t++ {
		from := path[t-1].Loc
		to := path[t].Loc

		// Vertex conflict: anyone else at `to` at time t.
		for _, other := range d.pt.Occupants(to, t) {
			dst.add(agentID, other)
		}

		// Edge conflict: someone at `to` at t-1 who is at `from` at t (a swap).
		if from != to {
			atToPrev := d.pt.Occupants(to, t-1)
			atFromNow := d.pt.Occupants(from, t)
			for _, a1 := range atToPrev {
				for _, a2 := range atFromNow {
					if a1 == a2 {
						dst.add(agentID, a1)
					}
				}
			}
		}

		// Target-of-other conflict: `to` is some other agent's goal,
		// and that agent has already arrived (and stayed) by time t.
		if arrival, ok := d.pt.GoalLen(to); ok && arrival < t {
			for _, id := range d.pt.Occupants(to, arrival) {
				if d.reg.Get(id).Path.Goal() == to {
					dst.add(agentID, id)
					break
				}
			}
		}
	}
	d.detectStoppedTarget(dst, agentID, path)
}

// detectStoppedTarget checks the symmetric case: this agent's own
// target is traversed by others after this agent has stopped there.
func (d *Detector) detectStoppedTarget(dst PairSet, agentID agent.ID, path agent.Path) {
	goal := path.Goal()
	for t := len(path); t <= d.pt.Makespan(); t++ {
		for _, other := range d.pt.Occupants(goal, t) {
			dst.add(agentID, other)
		}
	}
}
