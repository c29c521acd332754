// Package devtools provides developer tools for testing and debugging.
package devtools

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gookit/color"

	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/renderer"
	"siegepath/pkg/game/state"
)

const mapDumpFilename = "map.txt"

// Map symbols
const (
	symbolWalkable  = '.'
	symbolStructure = '#'
	symbolBlocked   = 'x'
	symbolWaypoint  = '*'
	symbolTarget    = 'T'
	symbolAgent     = 'A'
)

// overlay maps cells to the symbol of the most important thing on them
type overlay map[*world.Cell]rune

var symbolRank = map[rune]int{symbolWaypoint: 1, symbolTarget: 2, symbolAgent: 3}

// buildOverlay marks agents, their targets and remaining waypoints
func buildOverlay(s *state.Session) overlay {
	o := make(overlay)
	mark := func(pos world.Vec2, sym rune) {
		c := s.Grid.CellAt(pos)
		if symbolRank[sym] > symbolRank[o[c]] {
			o[c] = sym
		}
	}
	for _, a := range s.Agents() {
		for _, p := range a.Remaining() {
			mark(p, symbolWaypoint)
		}
		mark(a.Target(), symbolTarget)
		mark(a.Position(), symbolAgent)
	}
	return o
}

// cellSymbol returns the single-character symbol for a cell
func cellSymbol(s *state.Session, o overlay, cell *world.Cell) rune {
	if r, ok := o[cell]; ok {
		return r
	}
	switch {
	case cell.Walkable():
		return symbolWalkable
	case s.Placer.Occupies(cell):
		return symbolStructure
	default:
		return symbolBlocked
	}
}

// writeMapGrid writes one line per grid row
func writeMapGrid(w io.Writer, s *state.Session, o overlay) {
	for y := 0; y < s.Grid.Rows(); y++ {
		for x := 0; x < s.Grid.Cols(); x++ {
			fmt.Fprintf(w, "%c", cellSymbol(s, o, s.Grid.GetCell(x, y)))
		}
		fmt.Fprintln(w)
	}
}

// DumpMap writes a full debug dump of the session: metadata, legend, map,
// agents and structures. The format is sections of key: value lines so it
// stays readable by people and scripts alike.
func DumpMap(w io.Writer, s *state.Session) error {
	if s == nil || s.Grid == nil {
		return errors.New("devtools: no session")
	}
	bw := bufio.NewWriter(w)
	g := s.Grid

	version := g.Version()

	// Hold the search lock so the walkability snapshot is consistent
	lock := g.SearchLock()
	lock.Lock()
	var grid bytes.Buffer
	writeMapGrid(&grid, s, buildOverlay(s))
	blocked := 0
	g.ForEachCell(func(x, y int, c *world.Cell) {
		if !c.Walkable() {
			blocked++
		}
	})
	lock.Unlock()

	// --- Metadata ---
	fmt.Fprintln(bw, "=== MAP DUMP DEBUG (grid, structures, agents) ===")
	fmt.Fprintln(bw, "")
	fmt.Fprintln(bw, "--- Metadata ---")
	fmt.Fprintf(bw, "scenario: %q\n", s.Scenario.Name)
	fmt.Fprintf(bw, "world: %vx%v\n", g.Extent().X, g.Extent().Y)
	fmt.Fprintf(bw, "cell_width: %v\n", g.CellWidth())
	fmt.Fprintf(bw, "grid_cols: %d\n", g.Cols())
	fmt.Fprintf(bw, "grid_rows: %d\n", g.Rows())
	fmt.Fprintf(bw, "coordinate_system: x,y (0-based, x=column, y=row)\n")
	fmt.Fprintf(bw, "grid_version: %d\n", version)
	fmt.Fprintf(bw, "blocked_cells: %d\n", blocked)
	fmt.Fprintf(bw, "structures: %d\n", s.Placer.Count())
	fmt.Fprintf(bw, "listeners: blocked %d cleared %d\n",
		g.SubscriberCount(world.CellBlocked), g.SubscriberCount(world.CellCleared))
	fmt.Fprintf(bw, "generator: %q\n", s.Scenario.Generator.Name)
	fmt.Fprintf(bw, "generator_seed: %d\n", s.Scenario.Generator.Seed)
	fmt.Fprintf(bw, "ticks: %d\n", s.Ticks)
	fmt.Fprintf(bw, "elapsed: %v\n", s.Elapsed)
	fmt.Fprintln(bw, "")

	// --- Legend ---
	fmt.Fprintln(bw, "--- Legend (cell symbols) ---")
	fmt.Fprintf(bw, "%c = walkable  %c = structure  %c = blocked without structure  %c = waypoint  %c = target  %c = agent\n",
		symbolWalkable, symbolStructure, symbolBlocked, symbolWaypoint, symbolTarget, symbolAgent)
	fmt.Fprintln(bw, "")

	// --- Map ---
	fmt.Fprintln(bw, "--- Map ---")
	bw.Write(grid.Bytes())
	fmt.Fprintln(bw, "")

	// --- Agents ---
	fmt.Fprintln(bw, "--- Agents ---")
	agents := s.Agents()
	if len(agents) == 0 {
		fmt.Fprintln(bw, "  (none)")
	}
	for _, a := range agents {
		pos := g.CellAt(a.Position())
		target := g.CellAt(a.Target())
		// Searched afresh: the agent's cached path may predate the last change
		_, reachable := s.Finder.FindPathLocked(a.Position(), a.Target())
		fmt.Fprintf(bw, "  id: %q cell: %d,%d target_cell: %d,%d state: %s searches: %d failures: %d has_path: %v path_cost: %d remaining: %d arrived: %v reachable: %v\n",
			a.ID(), pos.GridX(), pos.GridY(), target.GridX(), target.GridY(), a.State(),
			a.Searches(), a.Failures(), a.Path() != nil, a.PathCost(), len(a.Remaining()), a.HasArrived(), reachable)
	}
	fmt.Fprintln(bw, "")

	// --- Structures ---
	fmt.Fprintln(bw, "--- Structures ---")
	structures := s.Placer.Structures()
	if len(structures) == 0 {
		fmt.Fprintln(bw, "  (none)")
	}
	for _, st := range structures {
		first := st.Cells[0]
		fmt.Fprintf(bw, "  id: %d cell: %d,%d cells: %d footprint: %v,%v %vx%v\n",
			st.ID, first.GridX(), first.GridY(), len(st.Cells),
			st.Footprint.X, st.Footprint.Y, st.Footprint.W, st.Footprint.H)
	}
	fmt.Fprintln(bw, "")

	// --- Messages ---
	fmt.Fprintln(bw, "--- Messages ---")
	for _, msg := range s.Messages {
		fmt.Fprintf(bw, "  %s\n", color.ClearCode(renderer.StripMarkup(msg)))
	}
	fmt.Fprintln(bw, "")

	fmt.Fprintln(bw, "=== END MAP DUMP ===")
	return bw.Flush()
}

// DumpMapToFile writes DumpMap's output to filename (map.txt when empty)
// and returns the absolute path written.
func DumpMapToFile(s *state.Session, filename string) (string, error) {
	if filename == "" {
		filename = mapDumpFilename
	}
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return "", err
	}

	f, err := os.Create(absPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := DumpMap(f, s); err != nil {
		return absPath, err
	}
	if err := f.Sync(); err != nil {
		return absPath, err
	}
	return absPath, nil
}
