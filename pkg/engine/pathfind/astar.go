// Package pathfind implements A* search over a world.Grid.
//
// Movement uses an octile cost model on grid indices: 10 per orthogonal step
// and 14 per diagonal step. The same function is used as the heuristic, which
// is admissible because it never exceeds the true cost between two cells.
//
// Searches write scratch fields on the grid's cells, so every call to Search
// or FindPath must be made while holding grid.SearchLock(). FindPathLocked
// takes the lock itself.
package pathfind

import (
	"github.com/zyedidia/generic/mapset"

	"siegepath/pkg/engine/pqueue"
	"siegepath/pkg/engine/world"
)

// Step costs of the octile model
const (
	StraightCost = 10
	DiagonalCost = 14
)

// Result is the outcome of a single search
type Result struct {
	// Waypoints are cell centres from the first step to the goal cell.
	// Empty but non-nil when start and goal share a cell; nil when not found.
	Waypoints []world.Vec2

	// Cells are the cells behind Waypoints, in the same order
	Cells []*world.Cell

	// Cost is the summed movement cost of the path
	Cost int

	// Expanded counts cells moved to the closed set
	Expanded int

	Found bool
}

// Pathfinder finds paths on one grid
type Pathfinder struct {
	grid *world.Grid
}

// New creates a pathfinder for grid
func New(grid *world.Grid) *Pathfinder {
	return &Pathfinder{grid: grid}
}

// Grid returns the grid this pathfinder searches
func (p *Pathfinder) Grid() *world.Grid {
	return p.grid
}

// MovementCost returns the octile distance between two cells
func MovementCost(a, b *world.Cell) int {
	dx := abs(a.GridX() - b.GridX())
	dy := abs(a.GridY() - b.GridY())
	if dx > dy {
		return DiagonalCost*dy + StraightCost*(dx-dy)
	}
	return DiagonalCost*dx + StraightCost*(dy-dx)
}

// CellPriority orders cells for the open set: lower FCost is higher
// priority, ties go to the lower HCost.
func CellPriority(a, b *world.Cell) bool {
	if a.FCost() != b.FCost() {
		return a.FCost() < b.FCost()
	}
	return a.HCost < b.HCost
}

// FindPath returns the waypoints from start to goal, or false if the goal
// is unreachable. The caller must hold the grid's search lock.
func (p *Pathfinder) FindPath(start, goal world.Vec2) ([]world.Vec2, bool) {
	r := p.Search(start, goal)
	return r.Waypoints, r.Found
}

// FindPathLocked is FindPath for callers that do not already hold the search lock
func (p *Pathfinder) FindPathLocked(start, goal world.Vec2) ([]world.Vec2, bool) {
	lock := p.grid.SearchLock()
	lock.Lock()
	defer lock.Unlock()
	return p.FindPath(start, goal)
}

// Search runs A* between the cells nearest start and goal.
// The caller must hold the grid's search lock.
func (p *Pathfinder) Search(start, goal world.Vec2) Result {
	startCell := p.grid.CellAt(start)
	goalCell := p.grid.CellAt(goal)
	return p.SearchCells(startCell, goalCell)
}

// SearchCells runs A* between two cells of the pathfinder's grid.
// The caller must hold the grid's search lock.
func (p *Pathfinder) SearchCells(startCell, goalCell *world.Cell) Result {
	if startCell == goalCell {
		return Result{Waypoints: []world.Vec2{}, Cells: []*world.Cell{}, Found: true}
	}

	open := pqueue.New(CellPriority, p.grid.Len())
	closed := mapset.New[*world.Cell]()

	startCell.GCost = 0
	startCell.HCost = MovementCost(startCell, goalCell)
	startCell.Parent = nil
	open.Add(startCell)

	expanded := 0
	for open.Count() > 0 {
		current, err := open.Pop()
		if err != nil {
			break
		}
		closed.Put(current)
		expanded++

		if current == goalCell {
			r := retracePath(startCell, goalCell)
			r.Expanded = expanded
			open.Clear()
			return r
		}

		for _, neighbor := range p.grid.Neighbors(current) {
			if !neighbor.Walkable() || closed.Has(neighbor) {
				continue
			}

			newGCost := current.GCost + MovementCost(current, neighbor)
			inOpen := open.Contains(neighbor)
			if newGCost < neighbor.GCost || !inOpen {
				neighbor.GCost = newGCost
				neighbor.HCost = MovementCost(neighbor, goalCell)
				neighbor.Parent = current

				if inOpen {
					open.Update(neighbor)
				} else {
					open.Add(neighbor)
				}
			}
		}
	}

	return Result{Expanded: expanded}
}

// retracePath walks Parent links back from goal and returns the path in
// start-to-goal order, excluding the start cell.
func retracePath(startCell, goalCell *world.Cell) Result {
	var cells []*world.Cell
	for current := goalCell; current != startCell && current != nil; current = current.Parent {
		cells = append(cells, current)
	}

	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	waypoints := make([]world.Vec2, len(cells))
	for i, c := range cells {
		waypoints[i] = c.Center()
	}

	return Result{
		Waypoints: waypoints,
		Cells:     cells,
		Cost:      goalCell.GCost,
		Found:     true,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
