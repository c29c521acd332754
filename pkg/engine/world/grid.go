package world

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// ErrInvalidDimensions is returned when a grid would have no cells
var ErrInvalidDimensions = errors.New("world: invalid grid dimensions")

// Grid is a fixed-shape 2D array of cells covering a world extent.
// The shape never changes after construction; only cell walkability does.
type Grid struct {
	cells     []*Cell // row-major: cells[y*cols+x]
	cols      int
	rows      int
	cellWidth float64
	extent    Vec2

	// searchMu is the single grid-wide lock. Searches hold it for their whole
	// duration and walkability writes take it, so a search never observes a
	// flag mid-change.
	searchMu sync.Mutex
	version  uint64

	observers *observers
}

// NewGrid creates a grid covering extent with square cells of cellWidth.
// The cell count per axis is extent/cellWidth rounded to the nearest integer.
func NewGrid(extent Vec2, cellWidth float64) (*Grid, error) {
	if cellWidth <= 0 || math.IsNaN(cellWidth) || math.IsInf(cellWidth, 0) {
		return nil, fmt.Errorf("%w: cell width %v", ErrInvalidDimensions, cellWidth)
	}
	cols := int(math.Round(extent.X / cellWidth))
	rows := int(math.Round(extent.Y / cellWidth))
	if cols < 1 || rows < 1 {
		return nil, fmt.Errorf("%w: %vx%v at cell width %v gives %dx%d cells",
			ErrInvalidDimensions, extent.X, extent.Y, cellWidth, cols, rows)
	}

	g := &Grid{
		cols:      cols,
		rows:      rows,
		cellWidth: cellWidth,
		extent:    extent,
		observers: newObservers(),
	}
	g.build()
	return g, nil
}

// MustNewGrid is like NewGrid but panics on invalid dimensions
func MustNewGrid(extent Vec2, cellWidth float64) *Grid {
	g, err := NewGrid(extent, cellWidth)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Grid) build() {
	radius := g.cellWidth / 2
	g.cells = make([]*Cell, g.cols*g.rows)
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			center := Vec2{X: g.cellWidth*float64(x) + radius, Y: g.cellWidth*float64(y) + radius}
			bounds := Rect{X: center.X - radius, Y: center.Y - radius, W: g.cellWidth, H: g.cellWidth}
			g.cells[y*g.cols+x] = newCell(x, y, center, bounds)
		}
	}
}

// Cols returns the number of cells along the x axis
func (g *Grid) Cols() int {
	return g.cols
}

// Rows returns the number of cells along the y axis
func (g *Grid) Rows() int {
	return g.rows
}

// CellWidth returns the side length of every cell
func (g *Grid) CellWidth() float64 {
	return g.cellWidth
}

// Extent returns the world size the grid was built for
func (g *Grid) Extent() Vec2 {
	return g.extent
}

// Len returns the total number of cells
func (g *Grid) Len() int {
	return len(g.cells)
}

// IsValidPosition checks if an x/y index pair is within grid bounds
func (g *Grid) IsValidPosition(x, y int) bool {
	return x >= 0 && x < g.cols && y >= 0 && y < g.rows
}

// GetCell returns the cell at the given indices, or nil if out of bounds
func (g *Grid) GetCell(x, y int) *Cell {
	if !g.IsValidPosition(x, y) {
		return nil
	}
	return g.cells[y*g.cols+x]
}

// CellAt returns the cell nearest to a world position.
// The position is clamped to the world extent first, so this never fails.
func (g *Grid) CellAt(pos Vec2) *Cell {
	percentX := clamp(pos.X/g.extent.X, 0, 1)
	percentY := clamp(pos.Y/g.extent.Y, 0, 1)
	if math.IsNaN(percentX) {
		percentX = 0
	}
	if math.IsNaN(percentY) {
		percentY = 0
	}

	x := int(math.Round(float64(g.cols-1) * percentX))
	y := int(math.Round(float64(g.rows-1) * percentY))
	return g.cells[y*g.cols+x]
}

// Snap returns the centre of the cell nearest to pos
func (g *Grid) Snap(pos Vec2) Vec2 {
	return g.CellAt(pos).center
}

// PointOf returns a world position that CellAt maps back to the cell at
// x/y. Cell centres only do that when the extent is a whole number of cells.
func (g *Grid) PointOf(x, y int) Vec2 {
	return IndexPoint(x, y, g.cols, g.rows, g.extent)
}

// IndexPoint is PointOf for a grid of cols by rows cells over extent
func IndexPoint(x, y, cols, rows int, extent Vec2) Vec2 {
	return Vec2{X: indexFraction(x, cols) * extent.X, Y: indexFraction(y, rows) * extent.Y}
}

func indexFraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// GetCellRelative returns the cell adjacent to c in the given direction, or nil
func (g *Grid) GetCellRelative(c *Cell, dir Direction) *Cell {
	if c == nil || !dir.IsValid() {
		return nil
	}
	dx, dy := dir.Delta()
	return g.GetCell(c.gridX+dx, c.gridY+dy)
}

// Neighbors returns the in-bounds cells adjacent to c, diagonals included
func (g *Grid) Neighbors(c *Cell) []*Cell {
	if c == nil {
		return nil
	}
	neighbors := make([]*Cell, 0, 8)
	for _, dir := range AllDirections() {
		if n := g.GetCellRelative(c, dir); n != nil {
			neighbors = append(neighbors, n)
		}
	}
	return neighbors
}

// CellsIntersecting returns every cell whose bounds overlap rect
func (g *Grid) CellsIntersecting(rect Rect) []*Cell {
	if rect.W <= 0 || rect.H <= 0 {
		return nil
	}
	minX := int(math.Floor(rect.X / g.cellWidth))
	minY := int(math.Floor(rect.Y / g.cellWidth))
	maxX := int(math.Ceil((rect.X+rect.W)/g.cellWidth)) - 1
	maxY := int(math.Ceil((rect.Y+rect.H)/g.cellWidth)) - 1

	var cells []*Cell
	for y := max(minY, 0); y <= min(maxY, g.rows-1); y++ {
		for x := max(minX, 0); x <= min(maxX, g.cols-1); x++ {
			c := g.cells[y*g.cols+x]
			if c.bounds.Intersects(rect) {
				cells = append(cells, c)
			}
		}
	}
	return cells
}

// ForEachCell iterates over all cells in row-major order
func (g *Grid) ForEachCell(fn func(x, y int, cell *Cell)) {
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			fn(x, y, g.cells[y*g.cols+x])
		}
	}
}

// SearchLock returns the grid-wide lock that must be held for the whole
// duration of a path search.
func (g *Grid) SearchLock() sync.Locker {
	return &g.searchMu
}

// Version returns a counter that increases whenever walkability changes
func (g *Grid) Version() uint64 {
	g.searchMu.Lock()
	defer g.searchMu.Unlock()
	return g.version
}

// SetWalkable changes a cell's walkability and reports whether it changed.
// On change, CellBlocked or CellCleared subscribers are notified after the
// search lock is released, on the calling goroutine. Setting the current
// value is a no-op and raises nothing.
func (g *Grid) SetWalkable(c *Cell, walkable bool) bool {
	if c == nil || g.GetCell(c.gridX, c.gridY) != c {
		return false
	}

	g.searchMu.Lock()
	if c.walkable == walkable {
		g.searchMu.Unlock()
		return false
	}
	c.walkable = walkable
	g.version++
	g.searchMu.Unlock()

	if walkable {
		g.observers.notify(CellCleared, c)
	} else {
		g.observers.notify(CellBlocked, c)
	}
	return true
}

// Reset forces every cell walkable. Each cell that changes raises its own
// CellCleared notification; nothing is suppressed.
func (g *Grid) Reset() int {
	var changed []*Cell

	g.searchMu.Lock()
	for _, c := range g.cells {
		if !c.walkable {
			c.walkable = true
			changed = append(changed, c)
		}
	}
	if len(changed) > 0 {
		g.version++
	}
	g.searchMu.Unlock()

	for _, c := range changed {
		g.observers.notify(CellCleared, c)
	}
	return len(changed)
}

// BlockedCount returns the number of unwalkable cells
func (g *Grid) BlockedCount() int {
	g.searchMu.Lock()
	defer g.searchMu.Unlock()

	n := 0
	for _, c := range g.cells {
		if !c.walkable {
			n++
		}
	}
	return n
}

// Subscribe registers l for the given event
func (g *Grid) Subscribe(event CellEvent, l Listener) Subscription {
	return g.observers.subscribe(event, l)
}

// Unsubscribe removes a listener; it reports false if s was not registered
func (g *Grid) Unsubscribe(s Subscription) bool {
	return g.observers.unsubscribe(s)
}

// SubscriberCount returns how many listeners are registered for event
func (g *Grid) SubscriberCount(event CellEvent) int {
	return g.observers.count(event)
}
