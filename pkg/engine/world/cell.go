// Package world provides the fixed 2D cell grid that agents path across.
// Cells are created once with the grid and never move; only their walkable
// flag and the search scratch fields change afterwards.
package world

import "fmt"

// Cell represents one fixed square of world space.
type Cell struct {
	// Grid position and world-space geometry, fixed at construction
	gridX  int
	gridY  int
	center Vec2
	bounds Rect

	// Written only by Grid while holding the search lock
	walkable bool

	// Search scratch. Only meaningful while the grid's search lock is held
	// by the search that wrote them.
	GCost  int
	HCost  int
	Parent *Cell

	// Slot in the open-set heap, -1 when not enqueued
	heapIndex int
}

// newCell creates a walkable cell at the given grid indices
func newCell(x, y int, center Vec2, bounds Rect) *Cell {
	return &Cell{
		gridX:     x,
		gridY:     y,
		center:    center,
		bounds:    bounds,
		walkable:  true,
		heapIndex: -1,
	}
}

// GridX returns the column index of the cell
func (c *Cell) GridX() int {
	return c.gridX
}

// GridY returns the row index of the cell
func (c *Cell) GridY() int {
	return c.gridY
}

// Center returns the world-space centre of the cell
func (c *Cell) Center() Vec2 {
	return c.center
}

// Bounds returns the world-space square covered by the cell
func (c *Cell) Bounds() Rect {
	return c.bounds
}

// Walkable reports whether paths may cross this cell.
// Searches must hold the grid's search lock while reading it.
func (c *Cell) Walkable() bool {
	return c.walkable
}

// FCost returns GCost + HCost, the primary search ranking key
func (c *Cell) FCost() int {
	return c.GCost + c.HCost
}

// HeapIndex returns the cell's current slot in a priority queue
func (c *Cell) HeapIndex() int {
	return c.heapIndex
}

// SetHeapIndex records the cell's slot in a priority queue
func (c *Cell) SetHeapIndex(i int) {
	c.heapIndex = i
}

// String returns the grid indices of the cell, e.g. "(3,4)"
func (c *Cell) String() string {
	if c == nil {
		return "(nil)"
	}
	return fmt.Sprintf("(%d,%d)", c.gridX, c.gridY)
}
