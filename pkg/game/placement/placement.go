// Package placement puts structures on the grid. A structure snaps to the
// cells under it and turns them unwalkable; removing it clears them again.
// Agents learn about both through the grid's notifications.
package placement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"

	"siegepath/pkg/engine/world"
)

var (
	// ErrOccupied is returned when a structure would cover an unwalkable cell
	ErrOccupied = errors.New("placement: cell occupied")
	// ErrNotPlaced is returned when removing from a cell with no structure
	ErrNotPlaced = errors.New("placement: no structure")
	// ErrOutOfBounds is returned for a footprint that covers no cell
	ErrOutOfBounds = errors.New("placement: footprint outside the world")
)

// Structure is a placed obstacle
type Structure struct {
	ID int
	// Footprint is the rectangle the structure was placed with; for single
	// cell placements it is the cell's bounds.
	Footprint world.Rect
	// Position is the snapped centre of the structure's first cell
	Position world.Vec2
	Cells    []*world.Cell
}

// Placer owns the structures on one grid.
// It is not safe for concurrent use; call it from the simulation goroutine.
type Placer struct {
	grid     *world.Grid
	nextID   int
	occupied mapset.Set[*world.Cell]
	byCell   map[*world.Cell]*Structure
	byID     map[int]*Structure
}

// New creates a placer for grid
func New(grid *world.Grid) *Placer {
	return &Placer{
		grid:     grid,
		occupied: mapset.New[*world.Cell](),
		byCell:   make(map[*world.Cell]*Structure),
		byID:     make(map[int]*Structure),
	}
}

// Grid returns the grid structures are placed on
func (p *Placer) Grid() *world.Grid {
	return p.grid
}

// Place snaps pos to the nearest cell and blocks it
func (p *Placer) Place(pos world.Vec2) (*Structure, error) {
	cell := p.grid.CellAt(pos)
	return p.place(cell.Bounds(), []*world.Cell{cell}, mapset.Set[*world.Cell]{})
}

// PlaceArea blocks every cell whose bounds overlap rect as one structure
func (p *Placer) PlaceArea(rect world.Rect) (*Structure, error) {
	cells := p.grid.CellsIntersecting(rect)
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrOutOfBounds, rect)
	}
	return p.place(rect, cells, mapset.Set[*world.Cell]{})
}

// place covers cells with a new structure. Cells in released are still
// blocked on the grid but belong to no structure, so they may be reused.
func (p *Placer) place(footprint world.Rect, cells []*world.Cell, released mapset.Set[*world.Cell]) (*Structure, error) {
	for _, c := range cells {
		if p.occupied.Has(c) || (!c.Walkable() && !released.Has(c)) {
			return nil, fmt.Errorf("%w: %v", ErrOccupied, c)
		}
	}

	p.nextID++
	s := &Structure{
		ID:        p.nextID,
		Footprint: footprint,
		Position:  cells[0].Center(),
		Cells:     cells,
	}
	for _, c := range cells {
		p.occupied.Put(c)
		p.byCell[c] = s
	}
	p.byID[s.ID] = s

	for _, c := range cells {
		p.grid.SetWalkable(c, false)
	}
	return s, nil
}

// Remove takes away the structure covering the cell nearest to pos
func (p *Placer) Remove(pos world.Vec2) error {
	cell := p.grid.CellAt(pos)
	s, ok := p.byCell[cell]
	if !ok {
		return fmt.Errorf("%w: %v", ErrNotPlaced, cell)
	}
	p.remove(s)
	return nil
}

// Toggle removes the structure under pos if there is one, otherwise places
// a single-cell structure there. It reports whether pos ended up blocked.
func (p *Placer) Toggle(pos world.Vec2) (bool, error) {
	if p.At(pos) != nil {
		return false, p.Remove(pos)
	}
	if _, err := p.Place(pos); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Placer) remove(s *Structure) {
	p.detach(s)
	for _, c := range s.Cells {
		p.grid.SetWalkable(c, true)
	}
}

// detach forgets s without touching the grid
func (p *Placer) detach(s *Structure) {
	delete(p.byID, s.ID)
	for _, c := range s.Cells {
		p.occupied.Remove(c)
		delete(p.byCell, c)
	}
}

// At returns the structure covering the cell nearest to pos, or nil
func (p *Placer) At(pos world.Vec2) *Structure {
	return p.byCell[p.grid.CellAt(pos)]
}

// Occupies reports whether a structure covers cell
func (p *Placer) Occupies(cell *world.Cell) bool {
	return p.occupied.Has(cell)
}

// Count returns the number of placed structures
func (p *Placer) Count() int {
	return len(p.byID)
}

// BlockedCells returns the number of cells covered by structures
func (p *Placer) BlockedCells() int {
	return p.occupied.Size()
}

// Structures returns the placed structures ordered by ID
func (p *Placer) Structures() []*Structure {
	out := make([]*Structure, 0, len(p.byID))
	for _, s := range p.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Clear removes every structure
func (p *Placer) Clear() {
	for _, s := range p.Structures() {
		p.remove(s)
	}
}

// Sync makes the area structures match footprints. Structures whose
// footprint is still wanted stay untouched, and a cell covered both before
// and after keeps its flag, so agents are only notified about cells that
// actually change. Single-cell structures are removed unless their cell
// bounds are listed.
func (p *Placer) Sync(footprints []world.Rect) error {
	wanted := make(map[world.Rect]bool, len(footprints))
	for _, r := range footprints {
		wanted[r] = true
	}

	have := make(map[world.Rect]bool, len(p.byID))
	released := mapset.New[*world.Cell]()
	var order []*world.Cell
	for _, s := range p.Structures() {
		if wanted[s.Footprint] && !have[s.Footprint] {
			have[s.Footprint] = true
			continue
		}
		p.detach(s)
		for _, c := range s.Cells {
			if !released.Has(c) {
				released.Put(c)
				order = append(order, c)
			}
		}
	}

	var errs []error
	for _, r := range footprints {
		if have[r] {
			continue
		}
		have[r] = true
		cells := p.grid.CellsIntersecting(r)
		if len(cells) == 0 {
			errs = append(errs, fmt.Errorf("%w: %v", ErrOutOfBounds, r))
			continue
		}
		if _, err := p.place(r, cells, released); err != nil {
			errs = append(errs, err)
		}
	}

	for _, c := range order {
		if !p.occupied.Has(c) {
			p.grid.SetWalkable(c, true)
		}
	}
	return errors.Join(errs...)
}
