package lns

import (
	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

// PathTable is the time-indexed occupancy structure (spec.md §4.1,
// C1). Its time dimension grows lazily per cell so memory stays
// proportional to the paths actually inserted, not cells*makespan.
type PathTable struct {
	table    map[gridmap.Cell][][]agent.ID // table[cell][t] -> occupying agents
	goals    map[gridmap.Cell]int          // goals[cell] -> earliest goal-time among agents goaled there
	makespan int
	inserted map[agent.ID]bool
}

// NewPathTable creates an empty path table.
func NewPathTable() *PathTable {
	return &PathTable{
		table:    make(map[gridmap.Cell][][]agent.ID),
		goals:    make(map[gridmap.Cell]int),
		inserted: make(map[agent.ID]bool),
	}
}

// Makespan returns the maximum length (in timesteps) over all
// currently inserted paths.
func (pt *PathTable) Makespan() int { return pt.makespan }

// IsInserted reports whether an agent's path currently occupies the table.
func (pt *PathTable) IsInserted(id agent.ID) bool { return pt.inserted[id] }

func (pt *PathTable) ensureLen(c gridmap.Cell, n int) {
	col := pt.table[c]
	for len(col) < n {
		col = append(col, nil)
	}
	pt.table[c] = col
}

// Insert adds an agent's path to the table: for each t, adds the agent
// to table[path[t].loc][t]; updates goals[goal] to the earliest
// arrival and makespan to the longest path.
func (pt *PathTable) Insert(id agent.ID, path agent.Path) {
	if len(path) == 0 {
		return
	}
	for _, step := range path {
		pt.ensureLen(step.Loc, step.T+1)
		pt.table[step.Loc][step.T] = append(pt.table[step.Loc][step.T], id)
	}
	goal := path.Goal()
	arrival := len(path) - 1
	if existing, ok := pt.goals[goal]; !ok || arrival < existing {
		pt.goals[goal] = arrival
	}
	if arrival > pt.makespan {
		pt.makespan = arrival
	}
	pt.inserted[id] = true
}

// Delete removes an agent's path from the table, using its currently
// committed path to find which cells/times to scrub. Assumes the
// agent is currently inserted. If the removed path was the longest,
// makespan is recomputed from the remaining occupancy.
//
// goals[] is left stale on delete (spec.md §4.1: "implementations may
// recompute goals[cell] on delete or leave it stale; if left stale,
// Collision Detector must tolerate agents no longer present") — the
// detector's target-conflict check (detector.go) verifies the
// candidate agent's live path still ends at the cell in question
// before counting a target conflict, exactly as InitLNS.cpp's
// updateCollidingPairs does.
func (pt *PathTable) Delete(id agent.ID, path agent.Path) {
	if len(path) == 0 {
		return
	}
	for _, step := range path {
		col := pt.table[step.Loc]
		if step.T >= len(col) {
			continue
		}
		col[step.T] = removeID(col[step.T], id)
	}
	if len(path)-1 >= pt.makespan {
		pt.makespan = 0
		for _, col := range pt.table {
			for t := len(col) - 1; t > pt.makespan; t-- {
				if len(col[t]) > 0 {
					pt.makespan = t
					break
				}
			}
		}
	}
	delete(pt.inserted, id)
}

func removeID(ids []agent.ID, target agent.ID) []agent.ID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Occupants returns the agents at cell at time t, or nil if the cell's
// lazy time axis does not yet extend that far.
func (pt *PathTable) Occupants(c gridmap.Cell, t int) []agent.ID {
	if t < 0 {
		return nil
	}
	col := pt.table[c]
	if t >= len(col) {
		return nil
	}
	return col[t]
}

// GoalLen returns the earliest goal-time recorded for a cell, and
// whether any agent has that cell as a goal.
func (pt *PathTable) GoalLen(c gridmap.Cell) (int, bool) {
	t, ok := pt.goals[c]
	return t, ok
}

// GoalAgent implements planner.Occupancy: returns the agent whose
// committed goal is c and who has already stopped there by time t.
// liveGoal resolves an agent id to its current path's final cell, so
// a stale goals[] entry left by Delete (see above) is tolerated.
func (pt *PathTable) GoalAgent(c gridmap.Cell, t int, liveGoal func(agent.ID) gridmap.Cell) (agent.ID, bool) {
	arrival, ok := pt.GoalLen(c)
	if !ok || arrival >= t {
		return 0, false
	}
	for _, id := range pt.Occupants(c, arrival) {
		if liveGoal(id) == c {
			return id, true
		}
	}
	return 0, false
}
