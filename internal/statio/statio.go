// Package statio writes the three persisted CSV/text outputs spec.md
// §6 names: per-iteration stats, an end-of-run results log shared
// across solver invocations, and a human-readable path dump. Grounded
// on InitLNS.cpp's writeIterStatsToFile/writeResultToFile/
// writePathsToFile, using encoding/csv the same way the teacher's
// tools/gen_instances writes its own CSV instance manifests.
package statio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/elektrokombinacija/mapf-lns-het/internal/agent"
	"github.com/elektrokombinacija/mapf-lns-het/internal/gridmap"
	"github.com/elektrokombinacija/mapf-lns-het/internal/lns"
)

var iterHeader = []string{"iteration", "group size", "solution cost", "num of colliding pairs", "runtime", "algorithm"}

// WriteIterStats writes one row per iteration to path, truncating any
// existing file (spec.md §6: "Headers are written exactly once per file").
func WriteIterStats(path string, stats []lns.IterationStats) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("statio: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write(iterHeader); err != nil {
		return err
	}
	for _, s := range stats {
		row := []string{
			strconv.Itoa(s.Iteration),
			strconv.Itoa(s.GroupSize),
			strconv.Itoa(s.SumOfCosts),
			strconv.Itoa(s.CollidingPairs),
			strconv.FormatFloat(s.Runtime.Seconds(), 'f', 4, 64),
			s.Heuristic,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

var resultHeader = []string{
	"instance", "solver", "runtime", "initial cost", "final cost",
	"cost lowerbound", "iterations", "num of failures", "average group size", "sum of auc",
}

// AppendResult appends one row to the shared end-of-run results log,
// writing resultHeader only if the file didn't already exist (spec.md
// §6: "end-of-run results appended to a shared log").
func AppendResult(path, instanceName, solverName string, res *lns.Result) error {
	_, statErr := os.Stat(path)
	needsHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("statio: open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	if needsHeader {
		if err := w.Write(resultHeader); err != nil {
			return err
		}
	}
	row := []string{
		instanceName,
		solverName,
		strconv.FormatFloat(res.Runtime.Seconds(), 'f', 4, 64),
		strconv.Itoa(res.InitialSumOfCosts),
		strconv.Itoa(res.FinalSumOfCosts),
		strconv.Itoa(res.SumOfDistances),
		strconv.Itoa(res.Iterations),
		strconv.Itoa(res.NumOfFailures),
		strconv.FormatFloat(res.AverageGroupSize, 'f', 2, 64),
		strconv.FormatFloat(res.AUC, 'f', 2, 64),
	}
	return w.Write(row)
}

// WritePaths writes the human-readable path dump: one line per agent,
// "Agent <id>: (row,col)→(row,col)→..." (spec.md §6).
func WritePaths(path string, m *gridmap.Map, reg *lns.Registry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("statio: create %s: %w", path, err)
	}
	defer f.Close()

	for _, id := range reg.All() {
		a := reg.Get(id)
		if _, err := fmt.Fprintf(f, "Agent %d: %s\n", id, formatPath(m, a.Path)); err != nil {
			return err
		}
	}
	return nil
}

func formatPath(m *gridmap.Map, path agent.Path) string {
	var b strings.Builder
	for i, step := range path {
		if i > 0 {
			b.WriteString("→")
		}
		row, col := m.RowCol(step.Loc)
		fmt.Fprintf(&b, "(%d,%d)", row, col)
	}
	return b.String()
}
