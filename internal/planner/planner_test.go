package planner

import (
	"testing"
	"time"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

func TestFindOptimalPathTrivial(t *testing.T) {
	m := gridmap.New(3, 3)
	start, goal := m.CellAt(0, 0), m.CellAt(2, 2)
	h := agent.ManhattanHeuristic(goal, m)

	path := FindOptimalPath(m, start, goal, h, nil, Empty, time.Now().Add(time.Second))
	if path.Cost() != 4 {
		t.Fatalf("want cost 4 on open 3x3 grid, got %d", path.Cost())
	}
	if path[0].Loc != start || path.Goal() != goal {
		t.Fatalf("path endpoints wrong: %+v", path)
	}
	for i := 1; i < len(path); i++ {
		if !m.ValidMove(path[i-1].Loc, path[i].Loc) {
			t.Fatalf("invalid move at step %d: %+v", i, path)
		}
	}
}

func TestFindOptimalPathRespectsVertexConstraint(t *testing.T) {
	m := gridmap.New(1, 3)
	start, goal := m.CellAt(0, 0), m.CellAt(0, 2)
	h := agent.ManhattanHeuristic(goal, m)

	cons := []Constraint{{Cell: m.CellAt(0, 1), T: 1}}
	path := FindOptimalPath(m, start, goal, h, cons, Empty, time.Now().Add(time.Second))
	for _, step := range path {
		if step.Loc == cons[0].Cell && step.T == cons[0].T {
			t.Fatalf("path violates hard constraint: %+v", path)
		}
	}
}

func TestFindNoWaitPathNeverWaits(t *testing.T) {
	m := gridmap.New(1, 4)
	start, goal := m.CellAt(0, 0), m.CellAt(0, 3)
	h := agent.ManhattanHeuristic(goal, m)
	hasGoal := make([]bool, m.MapSize())
	goalTable := make([]agent.ID, m.MapSize())

	path, targets := FindNoWaitPath(m, start, goal, h, goalTable, hasGoal)
	if path == nil {
		t.Fatal("expected a path")
	}
	for i := 1; i < len(path); i++ {
		if path[i].Loc == path[i-1].Loc {
			t.Fatalf("no-wait path contains a wait at step %d", i)
		}
	}
	if len(targets) != 0 {
		t.Fatalf("expected no targets on an empty goal table, got %v", targets)
	}
}

func TestFindNoWaitPathCollectsTargets(t *testing.T) {
	m := gridmap.New(1, 4)
	start, goal := m.CellAt(0, 0), m.CellAt(0, 3)
	h := agent.ManhattanHeuristic(goal, m)
	hasGoal := make([]bool, m.MapSize())
	goalTable := make([]agent.ID, m.MapSize())
	mid := m.CellAt(0, 1)
	hasGoal[mid] = true
	goalTable[mid] = 7

	_, targets := FindNoWaitPath(m, start, goal, h, goalTable, hasGoal)
	if !targets[7] {
		t.Fatalf("expected agent 7 to be collected as a target, got %v", targets)
	}
}
