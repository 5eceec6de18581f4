package lns

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

// ReplanAlgo names the inner replanner (spec.md §6's replan_algo_name).
type ReplanAlgo string

const (
	ReplanPP   ReplanAlgo = "PP"
	ReplanGCBS ReplanAlgo = "GCBS"
	ReplanPBS  ReplanAlgo = "PBS"
)

// DestroyMode names the init_destroy_name configuration option.
type DestroyMode string

const (
	DestroyAdaptive  DestroyMode = "Adaptive"
	DestroyTarget     DestroyMode = "Target"
	DestroyCollision DestroyMode = "Collision"
)

// Config bundles the spec.md §6 configuration table plus the
// supplemented knobs (pbs retry count) into the plain options struct
// the teacher's InitLNS constructor takes positionally; Go idiom makes
// it a struct instead (SPEC_FULL.md AMBIENT STACK / Configuration).
type Config struct {
	ReplanAlgo      ReplanAlgo
	DestroyMode     DestroyMode
	NeighborSize    int
	TimeLimit       time.Duration
	ReplanTimeLimit time.Duration
	ReactionFactor  float64
	DecayFactor     float64
	PBSRetries      int
	Seed            uint64
}

// Validate performs the fatal checks spec.md §7 requires before a
// solver is constructed (unknown names), matching the teacher's
// fail-fast constructor style without calling os.Exit from library code.
func (c Config) Validate() error {
	switch c.ReplanAlgo {
	case ReplanPP, ReplanGCBS, ReplanPBS:
	default:
		return fmt.Errorf("lns: unknown replan_algo_name %q", c.ReplanAlgo)
	}
	switch c.DestroyMode {
	case DestroyAdaptive, DestroyTarget, DestroyCollision:
	default:
		return fmt.Errorf("lns: unknown init_destroy_name %q", c.DestroyMode)
	}
	if c.NeighborSize < 1 {
		return fmt.Errorf("lns: neighbor_size must be >= 1, got %d", c.NeighborSize)
	}
	return nil
}

// IterationStats is one row of the per-iteration CSV output (spec.md
// §6 "Persisted outputs").
type IterationStats struct {
	Iteration      int
	GroupSize      int
	Heuristic      string
	SumOfCosts     int
	CollidingPairs int
	Runtime        time.Duration
	Accepted       bool
}

// Result is the end-of-run summary (spec.md §6 plus the
// SUPPLEMENTED FEATURES of SPEC_FULL.md: sum_of_distances,
// num_of_failures, average_group_size, AUC).
type Result struct {
	InitialSumOfCosts  int
	FinalSumOfCosts    int
	SumOfDistances     int
	NumOfFailures      int
	Iterations         int
	AverageGroupSize   float64
	AUC                float64
	FinalCollidingPairs int
	Runtime            time.Duration
	Stats              []IterationStats
}

// Solver owns every piece of shared state the repair loop mutates in
// lockstep (spec.md §5: single linear sequence, no suspension points).
type Solver struct {
	cfg Config
	m   *gridmap.Map
	reg *Registry
	pt  *PathTable
	cg  *CollisionGraph
	det *Detector
	pln *Planner
	gen *Generators
	sel *ALNSSelector
	rng *rand.Rand
	log *zap.Logger

	replanners map[ReplanAlgo]Replanner
}

// NewSolver wires the full component graph for one solve: path table,
// collision graph, detector, single-agent-planning-backed prioritized
// planner, neighborhood generators, ALNS selector, and the black-box
// replanner table, all sharing the one RNG spec.md §5 mandates.
func NewSolver(cfg Config, m *gridmap.Map, agents []*agent.Agent, log *zap.Logger) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	reg := NewRegistry(agents)
	pt := NewPathTable()
	cg := NewCollisionGraph(reg.Len())
	det := NewDetector(pt, reg)
	pln := NewPlanner(m, reg, pt, rng)
	gen := NewGenerators(m, reg, pt, cg, rng, cfg.NeighborSize)
	gen.SetPlanner(pln)
	sel := NewALNSSelector(cfg.ReactionFactor, cfg.DecayFactor, rng)

	s := &Solver{cfg: cfg, m: m, reg: reg, pt: pt, cg: cg, det: det, pln: pln, gen: gen, sel: sel, rng: rng, log: log}
	s.replanners = map[ReplanAlgo]Replanner{
		ReplanPP:   ppReplanner{pln},
		ReplanGCBS: newGCBSReplanner(m, reg, pt, det),
		ReplanPBS:  newPBSReplanner(pln, cfg.PBSRetries),
	}
	return s, nil
}

// Run executes the Initial Solver (C7) followed by the Repair Loop
// (C8) until the time budget is exhausted or collisions reach zero
// (spec.md §4.8's outer guard). ctx is consulted only at iteration
// boundaries: spec.md §5 mandates polled, not preemptive, cancellation.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	deadline := start.Add(s.cfg.TimeLimit)

	sumOfDistances := 0
	for _, id := range s.reg.All() {
		a := s.reg.Get(id)
		sumOfDistances += a.Heuristic(a.Start)
	}

	initial, n := Solve(s.pln, s.cg, deadline)
	if s.log != nil {
		s.log.Info("initial solution",
			zap.Int("sum_of_costs", initial.SumOfCosts),
			zap.Int("colliding_pairs", len(initial.CollidingPairs)),
			zap.Bool("collision_free", initial.Success))
	}

	res := &Result{
		InitialSumOfCosts: initial.SumOfCosts,
		FinalSumOfCosts:   initial.SumOfCosts,
		SumOfDistances:    sumOfDistances,
	}

	numCollidingPairs := s.cg.NumCollidingPairs()
	sumOfCosts := initial.SumOfCosts

	prevRuntime := time.Since(start)
	prevCost := sumOfCosts
	groupSizeTotal := 0

	for numCollidingPairs > 0 {
		if time.Now().After(deadline) || ctx.Err() != nil {
			break
		}

		iterStart := time.Now()
		replanDeadline := earlier(deadline, iterStart.Add(s.cfg.ReplanTimeLimit))

		heuristicIdx, heuristic := s.selectHeuristic()

		var ok bool
		n.Agents = nil
		switch heuristic {
		case CollisionBased:
			ok = s.gen.GenerateByCollisionGraph(n)
		case TargetBased:
			ok = s.gen.GenerateByTarget(n)
		}
		if !ok || len(n.Agents) == 0 {
			continue // spec.md §7: empty neighborhood from a generator is a silent skip
		}

		accepted, groupSize := s.runIteration(n, replanDeadline)

		if s.cfg.DestroyMode == DestroyAdaptive {
			improved := accepted && len(n.CollidingPairs) < len(n.OldCollidingPairs)
			s.sel.Update(heuristicIdx, improved, len(n.OldCollidingPairs), len(n.CollidingPairs), groupSize)
		}

		res.Iterations++
		groupSizeTotal += groupSize
		if !accepted {
			res.NumOfFailures++
		} else {
			delta := len(n.CollidingPairs) - len(n.OldCollidingPairs)
			numCollidingPairs += delta
			sumOfCosts += n.SumOfCosts - n.OldSumOfCosts
		}

		runtime := time.Since(start)
		res.Stats = append(res.Stats, IterationStats{
			Iteration:      res.Iterations,
			GroupSize:      groupSize,
			Heuristic:      heuristic.String(),
			SumOfCosts:     sumOfCosts,
			CollidingPairs: numCollidingPairs,
			Runtime:        runtime,
			Accepted:       accepted,
		})
		res.AUC += float64(prevCost-sumOfDistances) * (runtime - prevRuntime).Seconds()
		prevRuntime = runtime
		prevCost = sumOfCosts

		if s.log != nil && s.log.Core().Enabled(zap.DebugLevel) {
			s.log.Debug("iteration",
				zap.Int("i", res.Iterations),
				zap.String("heuristic", heuristic.String()),
				zap.Int("group_size", groupSize),
				zap.Bool("accepted", accepted),
				zap.Int("colliding_pairs", numCollidingPairs))
		}
	}

	pathCosts := 0
	for _, id := range s.reg.All() {
		pathCosts += s.reg.Get(id).Path.Cost()
	}
	if pathCosts != sumOfCosts {
		return nil, fmt.Errorf("lns: internal inconsistency: tracked sum of costs %d != sum of path costs %d", sumOfCosts, pathCosts)
	}

	res.FinalSumOfCosts = sumOfCosts
	res.FinalCollidingPairs = numCollidingPairs
	res.Runtime = time.Since(start)
	if res.Iterations > 0 {
		res.AverageGroupSize = float64(groupSizeTotal) / float64(res.Iterations)
	}
	return res, nil
}

// selectHeuristic resolves the destroy strategy for this iteration:
// an ALNS draw, or the fixed mode from configuration (spec.md §4.8 step 1).
func (s *Solver) selectHeuristic() (int, DestroyHeuristic) {
	if s.cfg.DestroyMode == DestroyAdaptive {
		return s.sel.Select()
	}
	if s.cfg.DestroyMode == DestroyTarget {
		return 0, TargetBased
	}
	return 1, CollisionBased
}

// runIteration implements spec.md §4.8 steps 3, 4 and the
// collision-graph half of step 6: snapshot, delete, replan, and the
// graph update on success. The ALNS update (step 5) and the
// colliding-pair/cost counters are handled by Run.
func (s *Solver) runIteration(n *Neighbor, replanDeadline time.Time) (accepted bool, groupSize int) {
	groupSize = len(n.Agents)

	replanner := s.replanners[s.cfg.ReplanAlgo]
	needsOldPaths := s.cfg.ReplanAlgo == ReplanPP || groupSize == 1
	if needsOldPaths {
		n.OldPaths = snapshotPaths(s.reg, n.Agents)
	} else {
		n.OldPaths = nil
	}

	n.OldSumOfCosts = 0
	n.OldCollidingPairs = newPairSet()
	for _, id := range n.Agents {
		path := s.reg.Get(id).Path
		n.OldSumOfCosts += path.Cost()
		for _, j := range s.cg.Neighbors(id) {
			n.OldCollidingPairs.add(id, j)
		}
		s.pt.Delete(id, path)
	}

	if groupSize == 1 {
		accepted = ppReplanner{s.pln}.Replan(n, replanDeadline)
	} else {
		accepted = replanner.Replan(n, replanDeadline)
	}

	if accepted {
		for pair := range n.OldCollidingPairs {
			s.cg.RemoveEdge(pair.A, pair.B)
		}
		for pair := range n.CollidingPairs {
			s.cg.AddEdge(pair.A, pair.B)
		}
	}
	return accepted, groupSize
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
