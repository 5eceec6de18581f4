package lns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

// TestInvariantCollidingPairsEqualsHalfSumDegrees is spec.md §8 P1.
func TestInvariantCollidingPairsEqualsHalfSumDegrees(t *testing.T) {
	cg := NewCollisionGraph(5)
	cg.AddEdge(0, 1)
	cg.AddEdge(1, 2)
	cg.AddEdge(3, 4)
	cg.AddEdge(2, 3)

	sumDegrees := 0
	for id := agent.ID(0); id < 5; id++ {
		sumDegrees += cg.Degree(id)
	}
	require.Equal(t, cg.NumCollidingPairs(), sumDegrees/2, "P1: num_of_colliding_pairs must equal half the sum of degrees")

	cg.RemoveEdge(1, 2)
	sumDegrees = 0
	for id := agent.ID(0); id < 5; id++ {
		sumDegrees += cg.Degree(id)
	}
	require.Equal(t, cg.NumCollidingPairs(), sumDegrees/2, "P1 must still hold after a removal")
}

// TestInvariantGraphSymmetry is spec.md §8 P4.
func TestInvariantGraphSymmetry(t *testing.T) {
	cg := NewCollisionGraph(4)
	cg.AddEdge(0, 2)
	cg.AddEdge(1, 3)
	cg.AddEdge(2, 3)

	for a := agent.ID(0); a < 4; a++ {
		for b := agent.ID(0); b < 4; b++ {
			require.Equal(t, cg.HasEdge(a, b), cg.HasEdge(b, a), "P4: graph[%d] containing %d must imply graph[%d] containing %d", a, b, b, a)
		}
	}

	cg.RemoveEdge(2, 3)
	for a := agent.ID(0); a < 4; a++ {
		for b := agent.ID(0); b < 4; b++ {
			require.Equal(t, cg.HasEdge(a, b), cg.HasEdge(b, a), "P4 must still hold after a removal")
		}
	}
}

// TestInvariantSumOfCostsEqualsPathLengths is spec.md §8 P2, checked
// against a completed solve: sum_of_costs must equal the sum of every
// agent's committed path length minus one.
func TestInvariantSumOfCostsEqualsPathLengths(t *testing.T) {
	m := gridmap.New(4, 4)
	a0 := agent.New(0, m.CellAt(0, 0), m.CellAt(3, 3), m)
	a1 := agent.New(1, m.CellAt(0, 3), m.CellAt(3, 0), m)
	a2 := agent.New(2, m.CellAt(3, 0), m.CellAt(0, 3), m)

	cfg := Config{
		ReplanAlgo:      ReplanPP,
		DestroyMode:     DestroyCollision,
		NeighborSize:    2,
		TimeLimit:       200 * time.Millisecond,
		ReplanTimeLimit: 50 * time.Millisecond,
		ReactionFactor:  0.5,
		DecayFactor:     0.1,
		PBSRetries:      3,
		Seed:            42,
	}
	solver, err := NewSolver(cfg, m, []*agent.Agent{a0, a1, a2}, nil)
	require.NoError(t, err)

	res, err := solver.Run(context.Background())
	require.NoError(t, err)

	total := 0
	for _, id := range solver.reg.All() {
		total += solver.reg.Get(id).Path.Cost()
	}
	require.Equal(t, total, res.FinalSumOfCosts, "P2: sum_of_costs must equal sum of (len(path)-1) over every agent")
}

// TestInvariantOccupantsMatchCommittedPaths is spec.md §8 P3: for every
// cell and timestep, the Path Table's occupants must equal exactly the
// agents whose committed path visits that cell at that time.
func TestInvariantOccupantsMatchCommittedPaths(t *testing.T) {
	m := gridmap.New(4, 4)
	a0 := agent.New(0, m.CellAt(0, 0), m.CellAt(3, 3), m)
	a1 := agent.New(1, m.CellAt(0, 3), m.CellAt(3, 0), m)
	a2 := agent.New(2, m.CellAt(3, 0), m.CellAt(0, 3), m)

	cfg := Config{
		ReplanAlgo:      ReplanPP,
		DestroyMode:     DestroyCollision,
		NeighborSize:    2,
		TimeLimit:       200 * time.Millisecond,
		ReplanTimeLimit: 50 * time.Millisecond,
		ReactionFactor:  0.5,
		DecayFactor:     0.1,
		PBSRetries:      3,
		Seed:            7,
	}
	solver, err := NewSolver(cfg, m, []*agent.Agent{a0, a1, a2}, nil)
	require.NoError(t, err)

	_, err = solver.Run(context.Background())
	require.NoError(t, err)

	want := make(map[gridmap.Cell]map[int]map[agent.ID]bool)
	for _, id := range solver.reg.All() {
		for _, step := range solver.reg.Get(id).Path {
			if want[step.Loc] == nil {
				want[step.Loc] = make(map[int]map[agent.ID]bool)
			}
			if want[step.Loc][step.T] == nil {
				want[step.Loc][step.T] = make(map[agent.ID]bool)
			}
			want[step.Loc][step.T][id] = true
		}
	}

	for c, byTime := range want {
		for tm, ids := range byTime {
			occ := solver.pt.Occupants(c, tm)
			require.Equal(t, len(ids), len(occ), "occupants at cell %d, t=%d mismatched count", c, tm)
			for _, id := range occ {
				require.True(t, ids[id], "path table reports agent %d at cell %d, t=%d but its committed path disagrees", id, c, tm)
			}
		}
	}
}

// TestInvariantCollidingPairsNonIncreasing is spec.md §8 P5: across
// accepted iterations, num_of_colliding_pairs never increases.
func TestInvariantCollidingPairsNonIncreasing(t *testing.T) {
	m := gridmap.New(5, 5)
	agents := []*agent.Agent{
		agent.New(0, m.CellAt(0, 0), m.CellAt(4, 4), m),
		agent.New(1, m.CellAt(0, 4), m.CellAt(4, 0), m),
		agent.New(2, m.CellAt(4, 0), m.CellAt(0, 4), m),
		agent.New(3, m.CellAt(4, 4), m.CellAt(0, 0), m),
	}
	cfg := Config{
		ReplanAlgo:      ReplanPP,
		DestroyMode:     DestroyAdaptive,
		NeighborSize:    2,
		TimeLimit:       300 * time.Millisecond,
		ReplanTimeLimit: 50 * time.Millisecond,
		ReactionFactor:  0.5,
		DecayFactor:     0.1,
		PBSRetries:      3,
		Seed:            99,
	}
	solver, err := NewSolver(cfg, m, agents, nil)
	require.NoError(t, err)

	res, err := solver.Run(context.Background())
	require.NoError(t, err)

	prev := -1
	for _, stat := range res.Stats {
		if !stat.Accepted {
			continue
		}
		if prev >= 0 {
			require.LessOrEqual(t, stat.CollidingPairs, prev, "P5: colliding pairs must not increase across accepted iterations")
		}
		prev = stat.CollidingPairs
	}
}

// TestDetectorAgreesWithValidator is spec.md §8 L3: on a committed
// solution, the pairwise-Validator-implied colliding set must equal the
// Collision Graph's edge set.
func TestDetectorAgreesWithValidator(t *testing.T) {
	reg := newTestRegistry(
		[2]gridmap.Cell{0, 2}, // agent 0: straight 0->1->2
		[2]gridmap.Cell{4, 2}, // agent 1: straight 4->3->2, vertex conflict with 0 at cell 2, t=2
		[2]gridmap.Cell{6, 9}, // agent 2: disjoint straight path
	)
	pt := NewPathTable()
	det := NewDetector(pt, reg)

	p0 := straightPath(0, 1, 2)
	p1 := straightPath(4, 3, 2)
	p2 := straightPath(6, 7, 8, 9)

	reg.Get(0).Path = p0
	reg.Get(1).Path = p1
	reg.Get(2).Path = p2
	pt.Insert(0, p0)
	pt.Insert(1, p1)
	pt.Insert(2, p2)

	ids := reg.All()
	cg := NewCollisionGraph(len(ids))
	for _, id := range ids {
		// Detect requires the candidate to be absent from the table, as
		// in the repair loop: take it out, detect, put it back.
		path := reg.Get(id).Path
		pt.Delete(id, path)
		pairs := newPairSet()
		det.Detect(pairs, id, path)
		pt.Insert(id, path)
		for pr := range pairs {
			cg.AddEdge(pr.A, pr.B)
		}
	}

	validatorPairs := newPairSet()
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := reg.Get(ids[i]), reg.Get(ids[j])
			if err := validatePair(ids[i], ids[j], a.Path, b.Path); err != nil {
				validatorPairs.add(ids[i], ids[j])
			}
		}
	}

	for pr := range validatorPairs {
		require.True(t, cg.HasEdge(pr.A, pr.B), "validator found a conflict %v the collision graph does not have", pr)
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if cg.HasEdge(ids[i], ids[j]) {
				_, ok := validatorPairs[makePair(ids[i], ids[j])]
				require.True(t, ok, "collision graph has edge (%d,%d) the validator does not confirm", ids[i], ids[j])
			}
		}
	}
}
