package lns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

func baseConfig(seed uint64) Config {
	return Config{
		ReplanAlgo:      ReplanPP,
		DestroyMode:     DestroyCollision,
		NeighborSize:    2,
		TimeLimit:       time.Second,
		ReplanTimeLimit: 200 * time.Millisecond,
		ReactionFactor:  0.5,
		DecayFactor:     0.1,
		PBSRetries:      3,
		Seed:            seed,
	}
}

// TestScenarioTrivial is spec.md §8 scenario 1: one agent on a 3x3 open
// map, corner to corner. Expect a 4-step path, no repair iterations, no
// colliding pairs.
func TestScenarioTrivial(t *testing.T) {
	m := gridmap.New(3, 3)
	a0 := agent.New(0, m.CellAt(0, 0), m.CellAt(2, 2), m)

	cfg := baseConfig(1)
	solver, err := NewSolver(cfg, m, []*agent.Agent{a0}, nil)
	require.NoError(t, err)

	res, err := solver.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, res.Iterations, "a single agent with no possible collision needs zero repair iterations")
	require.Equal(t, 0, res.FinalCollidingPairs)
	require.Equal(t, 4, res.FinalSumOfCosts, "a corner-to-corner Manhattan path on an open 3x3 grid costs 4")
	require.NoError(t, Validate(m, solver.reg))
}

// TestScenarioHeadOn is spec.md §8 scenario 2: two agents in a 2x5
// corridor swapping ends. The initial PP pass may produce an edge
// conflict; the repair loop must drive colliding pairs to zero within
// budget by using the second row as a passing pocket.
func TestScenarioHeadOn(t *testing.T) {
	m := gridmap.New(2, 5)
	a0 := agent.New(0, m.CellAt(0, 0), m.CellAt(0, 4), m)
	a1 := agent.New(1, m.CellAt(0, 4), m.CellAt(0, 0), m)

	cfg := baseConfig(2)
	cfg.NeighborSize = 2
	cfg.TimeLimit = time.Second

	solver, err := NewSolver(cfg, m, []*agent.Agent{a0, a1}, nil)
	require.NoError(t, err)

	res, err := solver.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, res.FinalCollidingPairs, "repair loop must converge to zero conflicts within budget using the passing pocket")
	require.NoError(t, Validate(m, solver.reg))
}

// TestScenarioTargetBlocker is spec.md §8 scenario 3: agent A's goal
// sits on agent B's straight-line path, producing a target conflict
// that the repair loop must resolve by having B detour.
func TestScenarioTargetBlocker(t *testing.T) {
	m := gridmap.New(3, 5)
	// A's whole journey is a single cell: it starts and ends at (1,2),
	// the midpoint of B's straight west-to-east corridor route.
	a0 := agent.New(0, m.CellAt(1, 2), m.CellAt(1, 2), m)
	a1 := agent.New(1, m.CellAt(1, 0), m.CellAt(1, 4), m)

	cfg := baseConfig(3)
	cfg.NeighborSize = 2
	cfg.TimeLimit = time.Second

	solver, err := NewSolver(cfg, m, []*agent.Agent{a0, a1}, nil)
	require.NoError(t, err)

	res, err := solver.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, res.FinalCollidingPairs, "the repair loop must route B around A's stationary goal")
	require.NoError(t, Validate(m, solver.reg))
}

// TestScenarioTimeLimitRespect is spec.md §8 scenario 6: with a tight
// budget and a provably unsatisfiable instance, Run must return
// promptly with colliding pairs still outstanding rather than spinning
// past the deadline. A full swap of two agents on a 2-cell map has no
// solution at any cost: there is nowhere for either agent to wait out
// of the other's way, so every repair attempt keeps failing.
func TestScenarioTimeLimitRespect(t *testing.T) {
	m := gridmap.New(1, 2)
	agents := []*agent.Agent{
		agent.New(0, m.CellAt(0, 0), m.CellAt(0, 1), m),
		agent.New(1, m.CellAt(0, 1), m.CellAt(0, 0), m),
	}

	cfg := baseConfig(4)
	cfg.TimeLimit = 50 * time.Millisecond
	cfg.ReplanTimeLimit = 10 * time.Millisecond
	cfg.NeighborSize = 2

	solver, err := NewSolver(cfg, m, agents, nil)
	require.NoError(t, err)

	start := time.Now()
	res, err := solver.Run(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Less(t, elapsed, 100*time.Millisecond, "Run must respect the time budget and return promptly")
	require.Greater(t, res.FinalCollidingPairs, 0, "a 1-wide corridor swap cannot be resolved without a passing pocket")
}
