package generator

import (
	"math/rand"

	"siegepath/pkg/engine/world"
)

// BSPGenerator partitions the grid with Binary Space Partitioning and puts a
// wall with a gate along every split. Each wall has a gate into the region
// on either side, so the open cells stay connected.
type BSPGenerator struct{}

// Name returns the name of this generator
func (g *BSPGenerator) Name() string {
	return "BSP Tree"
}

// bspNode is a rectangle of cells in the BSP tree
type bspNode struct {
	x, y, width, height int
	left, right         *bspNode
}

// Constants for BSP generation
const (
	minNodeSize = 4 // Minimum size of a region on either side of a wall
	gateWidth   = 2 // Open cells left in every wall
)

// Generate splits the grid until regions are too small or opts.Walls walls
// have been placed.
func (g *BSPGenerator) Generate(grid *world.Grid, rng *rand.Rand, opts Options) []world.Rect {
	ws := newWallSet(grid, opts.Keep)

	budget := opts.Walls
	if budget <= 0 {
		budget = -1 // unlimited
	}

	root := &bspNode{x: 0, y: 0, width: grid.Cols(), height: grid.Rows()}

	// Breadth first, so a wall budget spreads over the whole grid
	queue := []*bspNode{root}
	for len(queue) > 0 && budget != 0 {
		node := queue[0]
		queue = queue[1:]

		if !g.split(ws, rng, node) {
			continue
		}
		if budget > 0 {
			budget--
		}
		queue = append(queue, node.left, node.right)
	}
	return ws.footprints()
}

// split divides node with a one-cell wall and reports whether it could
func (g *BSPGenerator) split(ws *wallSet, rng *rand.Rand, node *bspNode) bool {
	// A wall needs minNodeSize cells on both sides plus its own line, and
	// must be longer than its gate
	canSplitX := node.width >= minNodeSize*2+1 && node.height > gateWidth
	canSplitY := node.height >= minNodeSize*2+1 && node.width > gateWidth

	var vertical bool
	switch {
	case canSplitX && canSplitY:
		if node.width == node.height {
			vertical = rng.Intn(2) == 0
		} else {
			vertical = node.width > node.height
		}
	case canSplitX:
		vertical = true
	case canSplitY:
		vertical = false
	default:
		return false
	}

	if vertical {
		wallX := node.x + minNodeSize + rng.Intn(node.width-minNodeSize*2)
		gate := node.y + rng.Intn(node.height-gateWidth+1)
		for y := node.y; y < node.y+node.height; y++ {
			if y < gate || y >= gate+gateWidth {
				ws.add(wallX, y)
			}
		}
		node.left = &bspNode{x: node.x, y: node.y, width: wallX - node.x, height: node.height}
		node.right = &bspNode{x: wallX + 1, y: node.y, width: node.x + node.width - wallX - 1, height: node.height}
		return true
	}

	wallY := node.y + minNodeSize + rng.Intn(node.height-minNodeSize*2)
	gate := node.x + rng.Intn(node.width-gateWidth+1)
	for x := node.x; x < node.x+node.width; x++ {
		if x < gate || x >= gate+gateWidth {
			ws.add(x, wallY)
		}
	}
	node.left = &bspNode{x: node.x, y: node.y, width: node.width, height: wallY - node.y}
	node.right = &bspNode{x: node.x, y: wallY + 1, width: node.width, height: node.y + node.height - wallY - 1}
	return true
}
