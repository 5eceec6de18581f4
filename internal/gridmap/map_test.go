package gridmap

import "testing"

func TestNeighborsFourConnected(t *testing.T) {
	m := New(3, 3)
	got := m.Neighbors(m.CellAt(1, 1))
	if len(got) != 4 {
		t.Fatalf("center cell of 3x3 open grid: want 4 neighbors, got %d", len(got))
	}
	corner := m.Neighbors(m.CellAt(0, 0))
	if len(corner) != 2 {
		t.Fatalf("corner cell: want 2 neighbors, got %d", len(corner))
	}
}

func TestNeighborsSkipBlocked(t *testing.T) {
	m := New(3, 3)
	m.SetBlocked(m.CellAt(0, 1))
	got := m.Neighbors(m.CellAt(0, 0))
	if len(got) != 1 {
		t.Fatalf("want 1 neighbor with (0,1) blocked, got %d", len(got))
	}
}

func TestValidMove(t *testing.T) {
	m := New(2, 2)
	a, b := m.CellAt(0, 0), m.CellAt(0, 1)
	if !m.ValidMove(a, b) {
		t.Errorf("adjacent move should be valid")
	}
	if !m.ValidMove(a, a) {
		t.Errorf("wait should be valid")
	}
	if m.ValidMove(a, m.CellAt(1, 1)) {
		t.Errorf("diagonal move should be invalid")
	}
}

func TestRowColRoundTrip(t *testing.T) {
	m := New(4, 5)
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			c := m.CellAt(row, col)
			r2, c2 := m.RowCol(c)
			if r2 != row || c2 != col {
				t.Errorf("RowCol(CellAt(%d,%d)) = (%d,%d)", row, col, r2, c2)
			}
		}
	}
}
