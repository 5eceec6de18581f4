package lns

import (
	"fmt"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
)

// Validate implements the independent, post-hoc legality check of
// spec.md §4.9 (C9), grounded on InitLNS.cpp's validateSolution: every
// agent's path is checked in isolation, then every unordered pair is
// checked for vertex/edge/target conflicts across their full joint
// timeline, extending the shorter path indefinitely at its goal.
func Validate(m *gridmap.Map, reg *Registry) error {
	ids := reg.All()
	for _, id := range ids {
		a := reg.Get(id)
		if err := validateSingle(m, a); err != nil {
			return fmt.Errorf("agent %d: %w", id, err)
		}
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := reg.Get(ids[i]), reg.Get(ids[j])
			if len(a.Path) == 0 || len(b.Path) == 0 {
				continue
			}
			if err := validatePair(ids[i], ids[j], a.Path, b.Path); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSingle(m *gridmap.Map, a *agent.Agent) error {
	if len(a.Path) == 0 {
		return fmt.Errorf("empty path")
	}
	if a.Path[0].Loc != a.Start {
		return fmt.Errorf("path starts at %d, want %d", a.Path[0].Loc, a.Start)
	}
	if a.Path.Goal() != a.Goal {
		return fmt.Errorf("path ends at %d, want %d", a.Path.Goal(), a.Goal)
	}
	for t := 1; t < len(a.Path); t++ {
		from, to := a.Path[t-1].Loc, a.Path[t].Loc
		if !m.ValidMove(from, to) {
			return fmt.Errorf("invalid move %d -> %d at t=%d", from, to, t)
		}
		if a.Path[t].T != t {
			return fmt.Errorf("path step at index %d carries timestep %d", t, a.Path[t].T)
		}
	}
	return nil
}

func locAt(path agent.Path, t int) gridmap.Cell {
	if t < len(path) {
		return path[t].Loc
	}
	return path[len(path)-1].Loc // held at goal indefinitely
}

func validatePair(idA, idB agent.ID, a, b agent.Path) error {
	limit := len(a)
	if len(b) > limit {
		limit = len(b)
	}
	for t := 1; t < limit; t++ {
		fa, ta := locAt(a, t-1), locAt(a, t)
		fb, tb := locAt(b, t-1), locAt(b, t)

		if ta == tb {
			return fmt.Errorf("vertex conflict between agents %d and %d at cell %d, t=%d", idA, idB, ta, t)
		}
		if fa == tb && fb == ta && fa != ta {
			return fmt.Errorf("edge conflict between agents %d and %d between t=%d and t=%d", idA, idB, t-1, t)
		}
	}
	return nil
}
