// Package agent defines the per-agent domain types consumed by the
// LNS repair loop: a stable id, a start/goal cell, a heuristic, and
// the agent's current committed path.
package agent

import "github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"

// ID is a stable agent identifier.
type ID int

// PathStep is a (location, timestep) pair. Timesteps are non-negative
// integers starting at 0.
type PathStep struct {
	Loc gridmap.Cell
	T   int
}

// Path is a finite ordered sequence of PathSteps; Path[t].T == t.
// Step 0 is the agent's start; the last step is the agent's goal;
// consecutive steps must be map-adjacent or equal (a wait).
type Path []PathStep

// Cost is the path's travel cost: len(path)-1, or 0 for an empty path.
func (p Path) Cost() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) - 1
}

// Goal returns the final cell visited, or -1 if the path is empty.
func (p Path) Goal() gridmap.Cell {
	if len(p) == 0 {
		return -1
	}
	return p[len(p)-1].Loc
}

// Heuristic maps a cell to an admissible estimate of cost-to-goal.
type Heuristic func(c gridmap.Cell) int

// Agent is a single path-finding participant: a fixed identity, a
// fixed start/goal, an admissible heuristic, and a mutable current
// path. Agents are created once at the start of a solve with an empty
// path; the Initial Solver assigns the first path, and only the
// Repair Loop mutates it thereafter.
type Agent struct {
	ID        ID
	Start     gridmap.Cell
	Goal      gridmap.Cell
	Heuristic Heuristic
	Path      Path
}

// New creates an agent with a Manhattan-distance heuristic over m.
func New(id ID, start, goal gridmap.Cell, m *gridmap.Map) *Agent {
	return &Agent{
		ID:        id,
		Start:     start,
		Goal:      goal,
		Heuristic: ManhattanHeuristic(goal, m),
	}
}

// ManhattanHeuristic builds a Heuristic that returns the Manhattan
// distance from c to goal on m's grid (admissible for 4-connected
// unit-cost movement with waiting).
func ManhattanHeuristic(goal gridmap.Cell, m *gridmap.Map) Heuristic {
	gr, gc := m.RowCol(goal)
	return func(c gridmap.Cell) int {
		r, cc := m.RowCol(c)
		return absInt(r-gr) + absInt(cc-gc)
	}
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
