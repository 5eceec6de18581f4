package gridmap

import (
	"encoding/json"
	"fmt"
	"os"
)

// ScenarioFile is the on-disk JSON shape for a map+agents instance,
// following the vertex/edge/robot shape the teacher's own
// tools/gen_instances tool emits, narrowed to a flat grid with agents
// that each carry exactly one start and one goal cell.
type ScenarioFile struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Blocked []int `json:"blocked,omitempty"` // flat cell indices that are obstacles
	Agents []struct {
		Start int `json:"start"`
		Goal  int `json:"goal"`
	} `json:"agents"`
}

// AgentSpec is a parsed (start, goal) pair, loader-facing only;
// internal/agent.Agent is built from these by the caller (keeps this
// package free of an import cycle on internal/agent).
type AgentSpec struct {
	Start, Goal Cell
}

// Load reads a scenario JSON file and returns the map plus the
// agent start/goal pairs in file order.
func Load(path string) (*Map, []AgentSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("gridmap: read %s: %w", path, err)
	}
	var sf ScenarioFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, nil, fmt.Errorf("gridmap: parse %s: %w", path, err)
	}
	if sf.Rows <= 0 || sf.Cols <= 0 {
		return nil, nil, fmt.Errorf("gridmap: %s: rows/cols must be positive", path)
	}

	m := New(sf.Rows, sf.Cols)
	m.SetName(sf.Name)
	for _, b := range sf.Blocked {
		m.SetBlocked(Cell(b))
	}

	specs := make([]AgentSpec, 0, len(sf.Agents))
	for i, a := range sf.Agents {
		if a.Start < 0 || a.Start >= m.MapSize() || a.Goal < 0 || a.Goal >= m.MapSize() {
			return nil, nil, fmt.Errorf("gridmap: %s: agent %d has out-of-range start/goal", path, i)
		}
		specs = append(specs, AgentSpec{Start: Cell(a.Start), Goal: Cell(a.Goal)})
	}
	return m, specs, nil
}
