package lns

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/sampleuv"
)

// DestroyHeuristic selects which neighborhood generator (C5) runs.
type DestroyHeuristic int

const (
	TargetBased DestroyHeuristic = iota
	CollisionBased
)

func (h DestroyHeuristic) String() string {
	if h == TargetBased {
		return "Target"
	}
	return "Collision"
}

// neighborSizeBuckets (K in spec.md §4.6) is fixed at 1: the reference
// implementation "uses K=1 in practice, collapsing to two weights."
const neighborSizeBuckets = 1

// ALNSSelector implements the Adaptive LNS weighted destroy-heuristic
// choice (spec.md §4.6, C6): weights w[0..2K-1], roulette-wheel draw,
// reaction/decay update after each iteration.
type ALNSSelector struct {
	weights        []float64
	reactionFactor float64
	decayFactor    float64
	rng            *rand.Rand
}

// NewALNSSelector creates a selector with all weights initialized to 1.
func NewALNSSelector(reactionFactor, decayFactor float64, rng *rand.Rand) *ALNSSelector {
	return &ALNSSelector{
		weights:        []float64{1, 1}, // index = heuristic*K + sizeBucket, K=1
		reactionFactor: reactionFactor,
		decayFactor:    decayFactor,
		rng:            rng,
	}
}

// Select draws a destroy heuristic by roulette-wheel sampling over the
// current weight vector (spec.md §4.6's "draw r in [0,1), accumulate
// w[0]+w[1]+... until threshold >= r*sum"). gonum's sampleuv.Weighted
// implements exactly this cumulative-threshold draw; it is rebuilt
// fresh on every call (rather than reused across iterations) because
// Weighted.Take zeroes the drawn item's weight for without-replacement
// sampling, and ALNS needs every heuristic eligible on every draw.
func (s *ALNSSelector) Select() (index int, heuristic DestroyHeuristic) {
	w := sampleuv.NewWeighted(append([]float64(nil), s.weights...), s.rng)
	idx, ok := w.Take()
	if !ok { // all weights zero: fall back to index 0 rather than panic
		idx = 0
	}
	return idx, DestroyHeuristic(idx / neighborSizeBuckets)
}

// Update applies the post-iteration reaction/decay rule (spec.md §4.6):
// on improvement, weight moves toward the normalized improvement; on a
// non-improving (or rejected) iteration, it decays.
func (s *ALNSSelector) Update(index int, improved bool, oldPairs, newPairs, neighborhoodSize int) {
	if neighborhoodSize <= 0 {
		neighborhoodSize = 1
	}
	if improved {
		gain := float64(oldPairs-newPairs) / float64(neighborhoodSize)
		s.weights[index] = s.reactionFactor*gain + (1-s.reactionFactor)*s.weights[index]
	} else {
		s.weights[index] *= 1 - s.decayFactor
	}
}

// Weights returns a copy of the current weight vector (tests, logging).
func (s *ALNSSelector) Weights() []float64 {
	return append([]float64(nil), s.weights...)
}
