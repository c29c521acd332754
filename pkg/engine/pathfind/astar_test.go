package pathfind

import (
	"math/rand"
	"testing"

	"siegepath/pkg/engine/world"
)

const testCellWidth = 60

// newGrid builds a cols x rows grid of 60-unit cells, all walkable.
func newGrid(t *testing.T, cols, rows int) *world.Grid {
	t.Helper()
	g, err := world.NewGrid(world.Vec2{X: float64(cols * testCellWidth), Y: float64(rows * testCellWidth)}, testCellWidth)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func center(g *world.Grid, x, y int) world.Vec2 {
	return g.GetCell(x, y).Center()
}

// pathCost sums the movement cost along start followed by cells.
func pathCost(start *world.Cell, cells []*world.Cell) int {
	total := 0
	prev := start
	for _, c := range cells {
		total += MovementCost(prev, c)
		prev = c
	}
	return total
}

func TestMovementCost(t *testing.T) {
	g := newGrid(t, 10, 10)
	tests := []struct {
		ax, ay, bx, by int
		want           int
	}{
		{0, 0, 0, 0, 0},
		{0, 0, 1, 0, 10},
		{0, 0, 1, 1, 14},
		{0, 0, 2, 2, 28},
		{0, 0, 3, 1, 34},
		{5, 9, 0, 0, 5*14 + 4*10},
	}
	for _, tt := range tests {
		a, b := g.GetCell(tt.ax, tt.ay), g.GetCell(tt.bx, tt.by)
		if got := MovementCost(a, b); got != tt.want {
			t.Errorf("MovementCost(%v, %v) = %d, want %d", a, b, got, tt.want)
		}
		if got := MovementCost(b, a); got != tt.want {
			t.Errorf("MovementCost(%v, %v) = %d, want %d (symmetry)", b, a, got, tt.want)
		}
	}
}

func TestCellPriority(t *testing.T) {
	g := newGrid(t, 3, 1)
	a, b := g.GetCell(0, 0), g.GetCell(1, 0)

	a.GCost, a.HCost = 10, 20
	b.GCost, b.HCost = 20, 20
	if !CellPriority(a, b) || CellPriority(b, a) {
		t.Error("lower FCost is not higher priority")
	}

	b.GCost, b.HCost = 20, 10
	if !CellPriority(b, a) || CellPriority(a, b) {
		t.Error("equal FCost: lower HCost is not higher priority")
	}
}

func TestSearch_DiagonalOnOpenGrid(t *testing.T) {
	g := newGrid(t, 3, 3)
	p := New(g)

	r := p.Search(center(g, 0, 0), center(g, 2, 2))
	if !r.Found {
		t.Fatal("Search found no path on an open grid")
	}
	want := []world.Vec2{center(g, 1, 1), center(g, 2, 2)}
	if len(r.Waypoints) != len(want) {
		t.Fatalf("Waypoints = %v, want %v", r.Waypoints, want)
	}
	for i := range want {
		if r.Waypoints[i] != want[i] {
			t.Errorf("Waypoints[%d] = %v, want %v", i, r.Waypoints[i], want[i])
		}
	}
	if r.Cost != 28 {
		t.Errorf("Cost = %d, want 28", r.Cost)
	}
}

func TestSearch_RoutesAroundBlockedCenter(t *testing.T) {
	g := newGrid(t, 3, 3)
	p := New(g)
	g.SetWalkable(g.GetCell(1, 1), false)

	r := p.Search(center(g, 0, 0), center(g, 2, 2))
	if !r.Found {
		t.Fatal("Search found no path around one blocked cell")
	}
	if r.Cost != 34 {
		t.Errorf("Cost = %d, want 34", r.Cost)
	}
	if last := r.Waypoints[len(r.Waypoints)-1]; last != center(g, 2, 2) {
		t.Errorf("last waypoint = %v, want %v", last, center(g, 2, 2))
	}
	for _, c := range r.Cells {
		if c == g.GetCell(1, 1) {
			t.Errorf("path %v crosses the blocked cell", r.Cells)
		}
	}
	if got := pathCost(g.GetCell(0, 0), r.Cells); got != r.Cost {
		t.Errorf("summed step cost = %d, Result.Cost = %d", got, r.Cost)
	}
}

func TestSearch_SameCell(t *testing.T) {
	g := newGrid(t, 3, 3)
	p := New(g)

	// Two points inside cell (1,1)
	r := p.Search(world.Vec2{X: 65, Y: 70}, world.Vec2{X: 110, Y: 100})
	if !r.Found {
		t.Fatal("Found = false for start and goal in the same cell")
	}
	if r.Waypoints == nil || len(r.Waypoints) != 0 {
		t.Errorf("Waypoints = %#v, want empty non-nil", r.Waypoints)
	}
	if r.Cost != 0 {
		t.Errorf("Cost = %d, want 0", r.Cost)
	}
}

func TestSearch_GoalEnclosed(t *testing.T) {
	g := newGrid(t, 7, 7)
	p := New(g)
	goal := g.GetCell(5, 5)
	for _, n := range g.Neighbors(goal) {
		g.SetWalkable(n, false)
	}

	path, ok := p.FindPathLocked(center(g, 0, 0), goal.Center())
	if ok {
		t.Errorf("FindPath found %v into an enclosed goal", path)
	}
	if path != nil {
		t.Errorf("path = %v, want nil", path)
	}
}

func TestSearch_GoalUnwalkable(t *testing.T) {
	g := newGrid(t, 5, 5)
	p := New(g)
	g.SetWalkable(g.GetCell(4, 4), false)

	if _, ok := p.FindPathLocked(center(g, 0, 0), center(g, 4, 4)); ok {
		t.Error("FindPath reached an unwalkable goal")
	}
}

func TestSearch_WallWithGap(t *testing.T) {
	// Vertical wall at x=3 with a single gap at y=6
	g := newGrid(t, 7, 7)
	p := New(g)
	for y := 0; y < 7; y++ {
		if y != 6 {
			g.SetWalkable(g.GetCell(3, y), false)
		}
	}

	r := p.Search(center(g, 0, 0), center(g, 6, 0))
	if !r.Found {
		t.Fatal("no path through the gap")
	}
	throughGap := false
	for _, c := range r.Cells {
		if !c.Walkable() {
			t.Errorf("path crosses unwalkable %v", c)
		}
		if c == g.GetCell(3, 6) {
			throughGap = true
		}
	}
	if !throughGap {
		t.Errorf("path %v does not use the gap", r.Cells)
	}
	if got := pathCost(g.GetCell(0, 0), r.Cells); got != r.Cost {
		t.Errorf("summed step cost = %d, Result.Cost = %d", got, r.Cost)
	}
}

func TestSearch_OpenGridAlwaysReachesGoal(t *testing.T) {
	g := newGrid(t, 12, 9)
	p := New(g)
	rng := rand.New(rand.NewSource(3))
	extent := g.Extent()

	for i := 0; i < 100; i++ {
		a := world.Vec2{X: rng.Float64() * extent.X, Y: rng.Float64() * extent.Y}
		b := world.Vec2{X: rng.Float64() * extent.X, Y: rng.Float64() * extent.Y}

		r := p.Search(a, b)
		if !r.Found || r.Waypoints == nil {
			t.Fatalf("Search(%v, %v) found nothing on an open grid", a, b)
		}
		startCell, goalCell := g.CellAt(a), g.CellAt(b)
		if startCell == goalCell {
			continue
		}
		if last := r.Waypoints[len(r.Waypoints)-1]; last != goalCell.Center() {
			t.Fatalf("Search(%v, %v) ends at %v, want %v", a, b, last, goalCell.Center())
		}
		// On an open grid the optimal cost is the octile distance itself
		if r.Cost != MovementCost(startCell, goalCell) {
			t.Fatalf("Search(%v, %v) cost = %d, want %d", a, b, r.Cost, MovementCost(startCell, goalCell))
		}
	}
}

func TestSearch_RepeatedSearchesIgnoreStaleScratch(t *testing.T) {
	g := newGrid(t, 8, 8)
	p := New(g)

	first := p.Search(center(g, 0, 0), center(g, 7, 7))
	g.SetWalkable(g.GetCell(4, 4), false)
	second := p.Search(center(g, 7, 0), center(g, 0, 7))
	third := p.Search(center(g, 0, 0), center(g, 7, 7))

	if !first.Found || !second.Found || !third.Found {
		t.Fatal("a search on a mostly open grid failed")
	}
	// The anti-diagonal does not cross (4,4), so it stays optimal
	if want := MovementCost(g.GetCell(7, 0), g.GetCell(0, 7)); second.Cost != want {
		t.Errorf("second Cost = %d, want %d", second.Cost, want)
	}
	for _, c := range third.Cells {
		if c == g.GetCell(4, 4) {
			t.Errorf("third search crossed the cell blocked after the first search")
		}
	}
	// One diagonal step becomes two straight steps
	if want := 6*DiagonalCost + 2*StraightCost; third.Cost != want {
		t.Errorf("third Cost = %d, want %d", third.Cost, want)
	}
}

func TestFindPath_LeavesNoCellEnqueued(t *testing.T) {
	g := newGrid(t, 6, 6)
	p := New(g)
	if _, ok := p.FindPathLocked(center(g, 0, 0), center(g, 5, 3)); !ok {
		t.Fatal("no path")
	}
	g.ForEachCell(func(x, y int, c *world.Cell) {
		if c.HeapIndex() != -1 {
			t.Errorf("%v HeapIndex() = %d after search, want -1", c, c.HeapIndex())
		}
	})
}
