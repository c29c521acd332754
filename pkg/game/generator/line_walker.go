package generator

import (
	"math/rand"

	"siegepath/pkg/engine/world"
)

// LineWalkerGenerator lays walls by walking straight lines in random
// cardinal directions, occasionally branching off.
type LineWalkerGenerator struct{}

// Name returns the name of this generator
func (g *LineWalkerGenerator) Name() string {
	return "Line Walker"
}

// Generate walks opts.Walls lines (default: one per 40 cells) from random
// starting cells.
func (g *LineWalkerGenerator) Generate(grid *world.Grid, rng *rand.Rand, opts Options) []world.Rect {
	ws := newWallSet(grid, opts.Keep)

	walls := opts.Walls
	if walls <= 0 {
		walls = max(1, grid.Len()/40)
	}

	// Longer lines on bigger grids
	span := min(grid.Cols(), grid.Rows())
	minDist := max(2, span/6)
	maxDist := max(minDist, span/2)

	// Branching gets rarer with each level of recursion
	const branchProb = 0.25

	for i := 0; i < walls; i++ {
		x, y := rng.Intn(grid.Cols()), rng.Intn(grid.Rows())
		g.walkLine(ws, rng, x, y, g.randomDirection(rng), branchProb, minDist, maxDist)
	}
	return ws.footprints()
}

// randomDirection returns a random cardinal direction
func (g *LineWalkerGenerator) randomDirection(rng *rand.Rand) world.Direction {
	cardinals := [...]world.Direction{world.North, world.East, world.South, world.West}
	return cardinals[rng.Intn(len(cardinals))]
}

// walkLine marks cells from (x, y) in dir until the distance runs out or the
// line leaves the grid.
func (g *LineWalkerGenerator) walkLine(ws *wallSet, rng *rand.Rand, x, y int, dir world.Direction, branchProb float64, minDist, maxDist int) {
	dx, dy := dir.Delta()
	distance := minDist + rng.Intn(maxDist-minDist+1)

	for segment := 0; segment < distance; segment++ {
		ws.add(x, y)

		if !ws.grid.IsValidPosition(x+dx, y+dy) {
			return
		}
		if rng.Float64() < branchProb {
			g.walkLine(ws, rng, x, y, g.randomDirection(rng), branchProb-0.1, minDist, maxDist)
		}

		x += dx
		y += dy
	}
	ws.add(x, y)
}
