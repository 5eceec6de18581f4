// Package gridmap defines the grid map consumed by the LNS solver.
//
// A Map is a 2D grid with a fixed number of columns; cells are
// identified only by a flat integer index (row*cols+col). Movement is
// four-connected plus "wait" (stay in place for one timestep).
package gridmap

// Cell is a flat index into the grid.
type Cell int

// Map is a fixed grid with a fixed number of columns and a per-cell
// obstacle mask.
type Map struct {
	Rows, Cols int
	blocked    []bool // len == Rows*Cols; true means untraversable
	name       string
}

// New creates an open (obstacle-free) Rows x Cols grid.
func New(rows, cols int) *Map {
	return &Map{Rows: rows, Cols: cols, blocked: make([]bool, rows*cols)}
}

// NewFromGrid builds a Map from a row-major obstacle grid (true = blocked).
func NewFromGrid(rows, cols int, blocked []bool) *Map {
	m := &Map{Rows: rows, Cols: cols, blocked: make([]bool, rows*cols)}
	copy(m.blocked, blocked)
	return m
}

// SetName records a human-readable instance name (for stats output).
func (m *Map) SetName(name string) { m.name = name }

// Name returns the instance name, or "unnamed" if none was set.
func (m *Map) Name() string {
	if m.name == "" {
		return "unnamed"
	}
	return m.name
}

// MapSize returns the total number of cells.
func (m *Map) MapSize() int { return m.Rows * m.Cols }

// SetBlocked marks a cell as an obstacle.
func (m *Map) SetBlocked(c Cell) { m.blocked[c] = true }

// Blocked reports whether a cell is an obstacle.
func (m *Map) Blocked(c Cell) bool { return m.blocked[c] }

// RowCol converts a cell index into (row, col) coordinates.
func (m *Map) RowCol(c Cell) (row, col int) {
	return int(c) / m.Cols, int(c) % m.Cols
}

// CellAt converts (row, col) coordinates into a cell index.
func (m *Map) CellAt(row, col int) Cell {
	return Cell(row*m.Cols + col)
}

// InBounds reports whether (row, col) lies within the grid.
func (m *Map) InBounds(row, col int) bool {
	return row >= 0 && row < m.Rows && col >= 0 && col < m.Cols
}

// Neighbors returns the four-connected movement neighbors of c,
// excluding out-of-bounds and blocked cells. Does not include c itself
// (the wait action is handled separately by callers).
func (m *Map) Neighbors(c Cell) []Cell {
	row, col := m.RowCol(c)
	deltas := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	out := make([]Cell, 0, 4)
	for _, d := range deltas {
		r, cc := row+d[0], col+d[1]
		if !m.InBounds(r, cc) {
			continue
		}
		n := m.CellAt(r, cc)
		if m.Blocked(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// ValidMove reports whether moving from "from" to "to" in one timestep
// is legal: either a wait (from == to, and from is not blocked) or a
// move to a four-connected neighbor.
func (m *Map) ValidMove(from, to Cell) bool {
	if m.Blocked(from) || m.Blocked(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, n := range m.Neighbors(from) {
		if n == to {
			return true
		}
	}
	return false
}
