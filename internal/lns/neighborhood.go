package lns

import (
	"math/rand/v2"
	"sort"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

// maxWalkAttempts bounds the collision-based generator (spec.md §9
// Design Notes' bounded-retry guard): random-walk expansion gives up
// after maxWalkAttempts failed walks, and the single-seed walk inside
// a large component takes at most maxWalkAttempts*neighborSize steps
// before falling back to random-walk expansion.
const maxWalkAttempts = 10

// Generators implements the two neighborhood-selection policies
// (spec.md §4.5, C5): collision-graph based and target based, plus
// the shared random-walk primitive they build on.
type Generators struct {
	m            *gridmap.Map
	reg          *Registry
	pt           *PathTable
	cg           *CollisionGraph
	rng          *rand.Rand
	neighborSize int

	goalTable []agent.ID // goalTable[cell] = agent whose goal is there
	hasGoal   []bool

	plannerRef *Planner
}

// NewGenerators builds the neighborhood generators. The goal table is
// built once here from each agent's fixed goal (spec.md §9 open
// question: "goals are fixed for the lifetime of a solve").
func NewGenerators(m *gridmap.Map, reg *Registry, pt *PathTable, cg *CollisionGraph, rng *rand.Rand, neighborSize int) *Generators {
	hasGoal := make([]bool, m.MapSize())
	goalTable := make([]agent.ID, m.MapSize())
	for _, id := range reg.All() {
		hasGoal[reg.Get(id).Goal] = true
		goalTable[reg.Get(id).Goal] = id
	}
	return &Generators{m: m, reg: reg, pt: pt, cg: cg, rng: rng, neighborSize: neighborSize, goalTable: goalTable, hasGoal: hasGoal}
}

// GenerateByCollisionGraph implements spec.md §4.5.1.
func (g *Generators) GenerateByCollisionGraph(n *Neighbor) bool {
	vertices := g.cg.VerticesWithEdges()
	if len(vertices) == 0 {
		return false
	}
	seed := vertices[g.rng.IntN(len(vertices))]
	component := g.cg.ConnectedComponent(seed)
	if len(component) <= 1 {
		return false
	}

	neighbors := make(map[agent.ID]bool)
	if len(component) <= g.neighborSize {
		for id := range component {
			neighbors[id] = true
		}
		failures := 0
		for len(neighbors) < g.neighborSize && failures < maxWalkAttempts {
			a1 := randomSetMember(neighbors, g.rng)
			a2, ok := g.RandomWalk(a1)
			if ok {
				neighbors[a2] = true
			} else {
				failures++
			}
		}
	} else {
		a := randomMapKey(component, g.rng)
		neighbors[a] = true
		for steps := 0; len(neighbors) < g.neighborSize && steps < maxWalkAttempts*g.neighborSize; steps++ {
			nbrs := g.cg.Neighbors(a)
			if len(nbrs) == 0 {
				break
			}
			a = nbrs[g.rng.IntN(len(nbrs))]
			neighbors[a] = true
		}
		// Fallback when the walk stopped short; a walk that adds no new agent counts as failed.
		for failures := 0; len(neighbors) < g.neighborSize && failures < maxWalkAttempts; {
			a2, ok := g.RandomWalk(randomSetMember(neighbors, g.rng))
			if ok && !neighbors[a2] {
				neighbors[a2] = true
			} else {
				failures++
			}
		}
	}

	n.Agents = setToSlice(neighbors)
	return true
}

// GenerateByTarget implements spec.md §4.5.2.
func (g *Generators) GenerateByTarget(n *Neighbor) bool {
	a := agent.ID(0)
	maxDeg := -1
	for _, id := range g.reg.All() {
		if d := g.cg.Degree(id); d > maxDeg {
			maxDeg = d
			a = id
		}
	}

	type startEntry struct {
		t  int
		id agent.ID
	}
	var aStart []startEntry
	aAgent := g.reg.Get(a)
	startCol := g.pt.Occupants // local alias for readability
	for t := 0; t <= g.pt.Makespan(); t++ {
		for _, other := range startCol(aAgent.Start, t) {
			if other != a {
				aStart = append(aStart, startEntry{t, other})
			}
		}
	}
	sort.Slice(aStart, func(i, j int) bool { return aStart[i].t < aStart[j].t })

	_, targets := g.Planner().RunNoWaitProbe(aAgent, g.goalTable, g.hasGoal)
	if targets == nil {
		targets = make(map[agent.ID]bool)
	}

	neighbors := map[agent.ID]bool{a: true}

	pool := len(aStart) + len(targets)
	switch {
	case pool >= g.neighborSize-1:
		switch {
		case len(aStart) == 0:
			shuffled := shuffledKeys(targets, g.rng)
			take(neighbors, shuffled, g.neighborSize-1)
		case len(targets) >= g.neighborSize:
			shuffled := shuffledKeys(targets, g.rng)
			take(neighbors, shuffled, g.neighborSize-2)
			neighbors[aStart[0].id] = true
		default:
			for id := range targets {
				neighbors[id] = true
			}
			for _, e := range aStart {
				if len(neighbors) >= g.neighborSize {
					break
				}
				neighbors[e.id] = true
			}
		}
	case len(aStart) > 0 || len(targets) > 0:
		for id := range targets {
			neighbors[id] = true
		}
		for _, e := range aStart {
			neighbors[e.id] = true
		}
		tabu := make(map[agent.ID]bool)
		for len(neighbors) < g.neighborSize {
			cur := randomSetMember(neighbors, g.rng)
			tabu[cur] = true
			if len(tabu) == len(neighbors) {
				break // no progress possible
			}
			var candidates []agent.ID
			for _, step := range g.reg.Get(cur).Path {
				if g.hasGoal[step.Loc] {
					candidates = append(candidates, g.goalTable[step.Loc])
				}
			}
			if len(candidates) == 0 {
				continue
			}
			neighbors[candidates[g.rng.IntN(len(candidates))]] = true
		}
	}

	n.Agents = setToSlice(neighbors)
	return true
}

// RandomWalk implements spec.md §4.5.3: a biased walk from a random
// point on agent_id's own path outward until it lands on a cell
// occupied by some other agent, returning that agent.
func (g *Generators) RandomWalk(agentID agent.ID) (agent.ID, bool) {
	path := g.reg.Get(agentID).Path
	if len(path) == 0 {
		return 0, false
	}
	t := g.rng.IntN(len(path))
	loc := path[t].Loc

	for t <= g.pt.Makespan() {
		occ := g.pt.Occupants(loc, t)
		solo := len(occ) == 0 || (len(occ) == 1 && occ[0] == agentID)
		if !solo {
			break
		}
		choices := append([]gridmap.Cell{loc}, g.m.Neighbors(loc)...)
		loc = choices[g.rng.IntN(len(choices))]
		t++
	}
	if t > g.pt.Makespan() {
		return 0, false
	}
	occ := g.pt.Occupants(loc, t)
	if len(occ) == 0 {
		return 0, false
	}
	return occ[g.rng.IntN(len(occ))], true
}

// Planner is set by the repair loop so the target-based generator can
// probe no-wait paths without importing a cyclic dependency.
func (g *Generators) Planner() *Planner { return g.plannerRef }

// SetPlanner wires the shared Planner in after construction (the
// Planner and Generators are constructed together by the repair loop,
// see repair.go).
func (g *Generators) SetPlanner(p *Planner) { g.plannerRef = p }

func randomSetMember(s map[agent.ID]bool, rng *rand.Rand) agent.ID {
	keys := setToSlice(s)
	return keys[rng.IntN(len(keys))]
}

func randomMapKey(s map[agent.ID]bool, rng *rand.Rand) agent.ID {
	return randomSetMember(s, rng)
}

func setToSlice(s map[agent.ID]bool) []agent.ID {
	out := make([]agent.ID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

func shuffledKeys(s map[agent.ID]bool, rng *rand.Rand) []agent.ID {
	out := setToSlice(s)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

func take(dst map[agent.ID]bool, src []agent.ID, n int) {
	if n > len(src) {
		n = len(src)
	}
	for i := 0; i < n; i++ {
		dst[src[i]] = true
	}
}
