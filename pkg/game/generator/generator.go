// Package generator lays out obstacle walls on a grid. Generators only
// propose footprints; the session places them so that reloads can diff the
// layout instead of rebuilding it.
package generator

import (
	"fmt"
	"math/rand"

	"github.com/zyedidia/generic/mapset"

	"siegepath/pkg/engine/world"
)

// Options controls one generation run
type Options struct {
	// Walls bounds how many walls the generator lays down. Zero lets the
	// generator pick its own default.
	Walls int

	// Keep lists positions whose cells must stay walkable, such as agent
	// spawns and targets.
	Keep []world.Vec2
}

// GridGenerator is an interface for obstacle layout algorithms
type GridGenerator interface {
	Name() string
	// Generate returns the bounds of every cell to block, in row-major
	// order, without touching the grid.
	Generate(grid *world.Grid, rng *rand.Rand, opts Options) []world.Rect
}

// Available generators
var (
	LineWalker = &LineWalkerGenerator{}
	BSP        = &BSPGenerator{}
)

// ByName returns the generator registered under a scenario name
func ByName(name string) (GridGenerator, error) {
	switch name {
	case "line_walker":
		return LineWalker, nil
	case "bsp":
		return BSP, nil
	default:
		return nil, fmt.Errorf("generator: unknown generator %q", name)
	}
}

// wallSet collects the cells a generator wants blocked, skipping kept cells
type wallSet struct {
	grid  *world.Grid
	keep  mapset.Set[*world.Cell]
	walls mapset.Set[*world.Cell]
}

func newWallSet(grid *world.Grid, keep []world.Vec2) *wallSet {
	ws := &wallSet{
		grid:  grid,
		keep:  mapset.New[*world.Cell](),
		walls: mapset.New[*world.Cell](),
	}
	for _, pos := range keep {
		ws.keep.Put(grid.CellAt(pos))
	}
	return ws
}

func (ws *wallSet) add(x, y int) {
	c := ws.grid.GetCell(x, y)
	if c == nil || ws.keep.Has(c) {
		return
	}
	ws.walls.Put(c)
}

func (ws *wallSet) has(x, y int) bool {
	c := ws.grid.GetCell(x, y)
	return c != nil && ws.walls.Has(c)
}

// footprints returns the collected cells' bounds in row-major order, so the
// same seed always yields the same slice.
func (ws *wallSet) footprints() []world.Rect {
	var out []world.Rect
	ws.grid.ForEachCell(func(x, y int, c *world.Cell) {
		if ws.walls.Has(c) {
			out = append(out, c.Bounds())
		}
	})
	return out
}
