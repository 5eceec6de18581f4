package lns

import (
	"reflect"
	"testing"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

func straightPath(cells ...int) agent.Path {
	p := make(agent.Path, len(cells))
	for i, c := range cells {
		p[i] = agent.PathStep{Loc: gridmap.Cell(c), T: i}
	}
	return p
}

// TestPathTableInsertDeleteRoundTrip is spec.md L1: insert then delete
// leaves the table bit-equal to the prior state.
func TestPathTableInsertDeleteRoundTrip(t *testing.T) {
	pt := NewPathTable()
	before := snapshotTable(pt)

	path := straightPath(0, 1, 2, 5)
	pt.Insert(1, path)
	pt.Delete(1, path)

	after := snapshotTable(pt)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("path table not bit-equal after insert/delete round trip:\nbefore=%+v\nafter=%+v", before, after)
	}
}

// snapshotTable copies the occupancy table of a PathTable for
// comparison, normalized by trimming trailing empty slots, since
// Insert/Delete intentionally don't shrink the lazy axis. goals,
// makespan and the inserted set are not part of the snapshot (Delete
// leaves goals stale by design).
func snapshotTable(pt *PathTable) map[gridmap.Cell][][]agent.ID {
	out := make(map[gridmap.Cell][][]agent.ID)
	for c, col := range pt.table {
		trimmed := trimTrailingEmpty(col)
		if len(trimmed) > 0 {
			out[c] = trimmed
		}
	}
	return out
}

func trimTrailingEmpty(col [][]agent.ID) [][]agent.ID {
	end := len(col)
	for end > 0 && len(col[end-1]) == 0 {
		end--
	}
	out := make([][]agent.ID, end)
	copy(out, col[:end])
	return out
}

func TestPathTableOccupantsAndMakespan(t *testing.T) {
	pt := NewPathTable()
	pt.Insert(0, straightPath(0, 1, 2))
	pt.Insert(1, straightPath(2, 1, 0))

	if pt.Makespan() != 2 {
		t.Fatalf("want makespan 2, got %d", pt.Makespan())
	}
	occ := pt.Occupants(gridmap.Cell(1), 1)
	if len(occ) != 2 {
		t.Fatalf("want 2 occupants at cell 1, t=1, got %v", occ)
	}
}

func TestPathTableDeleteLeavesOtherAgentsIntact(t *testing.T) {
	pt := NewPathTable()
	pa := straightPath(0, 1, 2)
	pb := straightPath(5, 1, 6)
	pt.Insert(0, pa)
	pt.Insert(1, pb)

	pt.Delete(0, pa)

	if pt.IsInserted(0) {
		t.Fatalf("agent 0 should no longer be inserted")
	}
	occ := pt.Occupants(gridmap.Cell(1), 1)
	if len(occ) != 1 || occ[0] != 1 {
		t.Fatalf("want only agent 1 left at cell 1, t=1, got %v", occ)
	}
}
