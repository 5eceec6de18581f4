package lns

import "github.com/elektrokombinacija/mapf-lns-het/internal/agent"

// Neighbor is the transient per-iteration working state (spec.md §3):
// the selected agents, their pre-removal paths (when rollback needs
// them verbatim), the pre-removal cost/colliding-pair snapshot, and,
// after replanning, the new cost/colliding-pair results. One instance
// is reused and overwritten every iteration.
type Neighbor struct {
	Agents []agent.ID

	OldPaths          []agent.Path // only populated for PP replans or singleton neighborhoods
	OldSumOfCosts     int
	OldCollidingPairs PairSet

	SumOfCosts     int
	CollidingPairs PairSet
}

func newNeighbor() *Neighbor {
	return &Neighbor{CollidingPairs: newPairSet(), OldCollidingPairs: newPairSet()}
}

func (n *Neighbor) reset(agents []agent.ID) {
	n.Agents = agents
	n.OldPaths = nil
	n.OldSumOfCosts = 0
	n.OldCollidingPairs = newPairSet()
	n.SumOfCosts = 0
	n.CollidingPairs = newPairSet()
}
