package lns

import (
	"container/heap"
	"time"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
	"github.com/elektrokombinacija/mapf-lns-het/internal/planner"
)

// Replanner is the narrow interface the Repair Loop drives a
// destroyed neighborhood through (spec.md §4.8 step 4 / §6 "black-box
// replanners"): replan n.Agents against the frozen path table of
// everyone else, write n.SumOfCosts/n.CollidingPairs, and report
// whether replanning succeeded within deadline.
type Replanner interface {
	Replan(n *Neighbor, deadline time.Time) bool
}

// ppReplanner adapts the Prioritized Planner to the Replanner
// interface for the repair loop's "replan_algo_name == PP" case and
// the "neighborhood has exactly one agent" fallback (spec.md §4.8
// step 4).
type ppReplanner struct{ p *Planner }

func (r ppReplanner) Replan(n *Neighbor, deadline time.Time) bool {
	return r.p.RunPP(n, false, deadline)
}

// gcbsNode is one node of the GCBS constraint tree, modeled directly
// on the teacher's cbsHeap/cbsNode branch-and-bound shape (cbs.go):
// a set of constraints plus the paths they produced, ordered by cost.
type gcbsNode struct {
	constraints map[agent.ID][]planner.Constraint
	paths       map[agent.ID]agent.Path
	cost        int
	index       int
}

type gcbsHeap []*gcbsNode

func (h gcbsHeap) Len() int            { return len(h) }
func (h gcbsHeap) Less(i, j int) bool  { return h[i].cost < h[j].cost }
func (h gcbsHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *gcbsHeap) Push(x any)         { n := x.(*gcbsNode); n.index = len(*h); *h = append(*h, n) }
func (h *gcbsHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// gcbsReplanner is a greedy CBS restricted to a neighborhood: it
// branches on the first conflict found between two neighborhood
// members by forbidding one of them the colliding cell/time, exactly
// as the teacher's CBS branches on Constraint{Robot, Vertex, Time}
// (cbs.go), but against the frozen background path table instead of
// an empty one, and accepts the first expanded node under budget
// rather than searching to cost-optimality (the "greedy" in GCBS).
type gcbsReplanner struct {
	m   *gridmap.Map
	reg *Registry
	pt  *PathTable
	det *Detector
}

func newGCBSReplanner(m *gridmap.Map, reg *Registry, pt *PathTable, det *Detector) *gcbsReplanner {
	return &gcbsReplanner{m: m, reg: reg, pt: pt, det: det}
}

const gcbsNodeBudget = 256

func (r *gcbsReplanner) Replan(n *Neighbor, deadline time.Time) bool {
	bg := occupancyView{r.pt, r.reg}
	root := &gcbsNode{paths: make(map[agent.ID]agent.Path)}
	for _, id := range n.Agents {
		a := r.reg.Get(id)
		root.paths[id] = planner.FindOptimalPath(r.m, a.Start, a.Goal, a.Heuristic, nil, bg, deadline)
	}
	root.cost = totalCost(root.paths)
	if !r.detectWithin(n.Agents, root) {
		return r.accept(n, root)
	}

	open := &gcbsHeap{}
	heap.Init(open)
	heap.Push(open, root)

	expansions := 0
	for open.Len() > 0 && expansions < gcbsNodeBudget {
		if time.Now().After(deadline) {
			break
		}
		cur := heap.Pop(open).(*gcbsNode)
		expansions++

		conflict := r.firstConflict(n.Agents, cur)
		if conflict == nil {
			return r.accept(n, cur)
		}

		for _, offender := range []agent.ID{conflict.A, conflict.B} {
			child := &gcbsNode{
				constraints: cloneConstraints(cur.constraints),
				paths:       cloneAgentPaths(cur.paths),
			}
			child.constraints[offender] = append(child.constraints[offender], planner.Constraint{
				Cell: conflict.Cell, T: conflict.T,
			})
			a := r.reg.Get(offender)
			child.paths[offender] = planner.FindOptimalPath(r.m, a.Start, a.Goal, a.Heuristic, child.constraints[offender], bg, deadline)
			child.cost = totalCost(child.paths)
			heap.Push(open, child)
		}
	}

	// Budget exhausted without a conflict-free node: accept the
	// lowest-cost node still on the open list, matching GCBS's
	// "greedy" character (spec.md §4.8's strict-< acceptance rule is
	// applied by the caller via n.CollidingPairs).
	if open.Len() > 0 {
		return r.accept(n, (*open)[0])
	}
	return false
}

type conflict struct {
	A, B agent.ID
	Cell gridmap.Cell
	T    int
}

func (r *gcbsReplanner) firstConflict(ids []agent.ID, node *gcbsNode) *conflict {
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := ids[i], ids[j]
			pa, pb := node.paths[a], node.paths[b]
			limit := len(pa)
			if len(pb) > limit {
				limit = len(pb)
			}
			for t := 0; t < limit; t++ {
				ca := cellAt(pa, t)
				cb := cellAt(pb, t)
				if ca == cb {
					return &conflict{A: a, B: b, Cell: ca, T: t}
				}
			}
		}
	}
	return nil
}

func cloneConstraints(in map[agent.ID][]planner.Constraint) map[agent.ID][]planner.Constraint {
	out := make(map[agent.ID][]planner.Constraint, len(in))
	for k, v := range in {
		out[k] = append([]planner.Constraint(nil), v...)
	}
	return out
}

func cellAt(path agent.Path, t int) gridmap.Cell {
	if len(path) == 0 {
		return -1
	}
	if t >= len(path) {
		return path[len(path)-1].Loc
	}
	return path[t].Loc
}

func totalCost(paths map[agent.ID]agent.Path) int {
	sum := 0
	for _, p := range paths {
		sum += p.Cost()
	}
	return sum
}

func cloneAgentPaths(in map[agent.ID]agent.Path) map[agent.ID]agent.Path {
	out := make(map[agent.ID]agent.Path, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// detectWithin reports whether any pair within ids conflicts in node,
// used only to skip CBS branching when the root is already clean.
func (r *gcbsReplanner) detectWithin(ids []agent.ID, node *gcbsNode) bool {
	return r.firstConflict(ids, node) != nil
}

// accept inserts node's paths one at a time (mirroring RunPP's
// sequential insert-then-detect order so sibling-to-sibling conflicts
// within the neighborhood are caught exactly once, same as
// neighbor-to-background ones) and judges the result by GCBS's strict
// < rule (spec.md §4.8's "Tie-breaks and edge cases"). On rejection,
// no new path survives in the path table, the registry is untouched,
// and the neighborhood's registry paths are put back into the path
// table, restoring the pre-iteration state the rollback L2 requires.
func (r *gcbsReplanner) accept(n *Neighbor, node *gcbsNode) bool {
	pairs := newPairSet()
	sum := 0
	for _, id := range n.Agents {
		path := node.paths[id]
		r.det.Detect(pairs, id, path)
		r.pt.Insert(id, path)
		sum += path.Cost()
	}

	success := len(pairs) < len(n.OldCollidingPairs) // GCBS's strict-< rule (spec.md §4.8)
	if !success {
		for _, id := range n.Agents {
			r.pt.Delete(id, node.paths[id])
			r.pt.Insert(id, r.reg.Get(id).Path)
		}
		return false
	}
	for _, id := range n.Agents {
		r.reg.Get(id).Path = node.paths[id]
	}
	n.CollidingPairs = pairs
	n.SumOfCosts = sum
	return true
}

// pbsReplanner is a simplified Priority-Based Search: instead of
// exploring a priority-ordering tree, it re-runs PP with a fresh
// random agent ordering, up to retries times within the budget, and
// accepts the first run that passes PP's acceptance rule, grounded on the teacher's
// multi-restart pattern in prioritized.go (RunPrioritizedPlanning's
// outer retry loop).
type pbsReplanner struct {
	pp      *Planner
	retries int
}

func newPBSReplanner(p *Planner, retries int) *pbsReplanner {
	return &pbsReplanner{pp: p, retries: retries}
}

// The repair loop leaves n.OldPaths empty for PBS, so a rejected RunPP
// removes its own insertions and leaves the neighborhood out of the
// path table (see prioritized.go); each retry therefore starts from
// the same pre-iteration table as the last. If no attempt is accepted,
// Replan restores the neighborhood's paths from its own snapshot into
// the registry and the path table; there is no partial credit across
// attempts (spec.md §7: "an iteration is all-or-nothing").
func (r *pbsReplanner) Replan(n *Neighbor, deadline time.Time) bool {
	oldPaths := snapshotPaths(r.pp.reg, n.Agents)
	for attempt := 0; attempt < r.retries; attempt++ {
		if time.Now().After(deadline) {
			break
		}
		if r.pp.RunPP(n, false, deadline) {
			return true
		}
	}
	for i, id := range n.Agents {
		r.pp.reg.Get(id).Path = oldPaths[i]
		r.pp.pt.Insert(id, oldPaths[i])
	}
	n.SumOfCosts = n.OldSumOfCosts
	return false
}
