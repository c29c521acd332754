package world

import (
	"errors"
	"sync"
	"testing"
)

// newTestGrid builds the 1920x1080 world at 60px cells used throughout these tests: 32x18 cells.
func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(Vec2{X: 1920, Y: 1080}, 60)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	return g
}

func TestNewGrid_Dimensions(t *testing.T) {
	g := newTestGrid(t)
	if g.Cols() != 32 || g.Rows() != 18 {
		t.Errorf("grid = %dx%d, want 32x18", g.Cols(), g.Rows())
	}
	if g.Len() != 32*18 {
		t.Errorf("Len() = %d, want %d", g.Len(), 32*18)
	}
}

func TestNewGrid_RoundsToNearestCellCount(t *testing.T) {
	// 100/60 = 1.67 rounds to 2, 80/60 = 1.33 rounds to 1
	g, err := NewGrid(Vec2{X: 100, Y: 80}, 60)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	if g.Cols() != 2 || g.Rows() != 1 {
		t.Errorf("grid = %dx%d, want 2x1", g.Cols(), g.Rows())
	}
}

func TestNewGrid_InvalidDimensions(t *testing.T) {
	tests := []struct {
		name      string
		extent    Vec2
		cellWidth float64
	}{
		{"zero cell width", Vec2{X: 100, Y: 100}, 0},
		{"negative cell width", Vec2{X: 100, Y: 100}, -5},
		{"extent smaller than half a cell", Vec2{X: 10, Y: 100}, 60},
		{"zero extent", Vec2{}, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.extent, tt.cellWidth)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("NewGrid(%v, %v) error = %v, want ErrInvalidDimensions", tt.extent, tt.cellWidth, err)
			}
		})
	}
}

func TestMustNewGrid_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustNewGrid with zero cell width did not panic")
		}
	}()
	MustNewGrid(Vec2{X: 10, Y: 10}, 0)
}

func TestCellGeometry(t *testing.T) {
	g := newTestGrid(t)
	c := g.GetCell(6, 3)
	if c == nil {
		t.Fatal("GetCell(6, 3) = nil")
	}
	if c.GridX() != 6 || c.GridY() != 3 {
		t.Errorf("indices = (%d,%d), want (6,3)", c.GridX(), c.GridY())
	}
	wantCenter := Vec2{X: 390, Y: 210}
	if c.Center() != wantCenter {
		t.Errorf("Center() = %v, want %v", c.Center(), wantCenter)
	}
	wantBounds := Rect{X: 360, Y: 180, W: 60, H: 60}
	if c.Bounds() != wantBounds {
		t.Errorf("Bounds() = %v, want %v", c.Bounds(), wantBounds)
	}
	if !c.Walkable() {
		t.Error("new cell is not walkable")
	}
	if c.HeapIndex() != -1 {
		t.Errorf("HeapIndex() = %d, want -1", c.HeapIndex())
	}
}

func TestGetCell_OutOfBounds(t *testing.T) {
	g := newTestGrid(t)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {32, 0}, {0, 18}} {
		if c := g.GetCell(p[0], p[1]); c != nil {
			t.Errorf("GetCell(%d, %d) = %v, want nil", p[0], p[1], c)
		}
	}
}

func TestCellAt_FindsCellByItsOwnCenter(t *testing.T) {
	g := newTestGrid(t)
	g.ForEachCell(func(x, y int, cell *Cell) {
		if got := g.CellAt(cell.Center()); got != cell {
			t.Errorf("CellAt(center of %v) = %v", cell, got)
		}
	})
}

func TestCellAt_ClampsOutsideWorld(t *testing.T) {
	g := newTestGrid(t)
	tests := []struct {
		pos  Vec2
		x, y int
	}{
		{Vec2{X: -500, Y: -500}, 0, 0},
		{Vec2{X: 5000, Y: 5000}, 31, 17},
		{Vec2{X: -1, Y: 5000}, 0, 17},
		{Vec2{X: 1920, Y: 0}, 31, 0},
	}
	for _, tt := range tests {
		c := g.CellAt(tt.pos)
		if c.GridX() != tt.x || c.GridY() != tt.y {
			t.Errorf("CellAt(%v) = %v, want (%d,%d)", tt.pos, c, tt.x, tt.y)
		}
	}
}

func TestSnap(t *testing.T) {
	g := newTestGrid(t)
	got := g.Snap(Vec2{X: 395, Y: 205})
	want := g.GetCell(6, 3).Center()
	if got != want {
		t.Errorf("Snap = %v, want %v", got, want)
	}
}

func TestPointOf_LooksUpEveryCell(t *testing.T) {
	// 1100 is not a whole number of 60px cells, so centres drift from CellAt
	for _, extent := range []Vec2{{X: 1100, Y: 600}, {X: 1920, Y: 1080}, {X: 60, Y: 60}} {
		g := MustNewGrid(extent, 60)
		g.ForEachCell(func(x, y int, cell *Cell) {
			if got := g.CellAt(g.PointOf(x, y)); got != cell {
				t.Errorf("%vx%v: CellAt(PointOf(%d, %d)) = %v, want %v", extent.X, extent.Y, x, y, got, cell)
			}
		})
	}
}

func TestNeighbors_Counts(t *testing.T) {
	g := newTestGrid(t)
	tests := []struct {
		name string
		x, y int
		want int
	}{
		{"corner", 0, 0, 3},
		{"edge", 0, 9, 5},
		{"interior", 16, 9, 8},
		{"far corner", 31, 17, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := g.GetCell(tt.x, tt.y)
			neighbors := g.Neighbors(c)
			if len(neighbors) != tt.want {
				t.Errorf("len(Neighbors(%v)) = %d, want %d", c, len(neighbors), tt.want)
			}
			for _, n := range neighbors {
				if n == c {
					t.Errorf("Neighbors(%v) contains the cell itself", c)
				}
			}
		})
	}
}

func TestNeighbors_IncludeUnwalkable(t *testing.T) {
	g := newTestGrid(t)
	center := g.GetCell(5, 5)
	for _, n := range g.Neighbors(center) {
		g.SetWalkable(n, false)
	}
	if got := len(g.Neighbors(center)); got != 8 {
		t.Errorf("len(Neighbors) = %d after blocking them, want 8", got)
	}
}

func TestCellsIntersecting(t *testing.T) {
	g := newTestGrid(t)

	// Straddles cells (1,1),(2,1),(1,2),(2,2)
	cells := g.CellsIntersecting(Rect{X: 90, Y: 90, W: 60, H: 60})
	if len(cells) != 4 {
		t.Fatalf("len = %d, want 4: %v", len(cells), cells)
	}

	// Exactly one cell; touching edges do not count
	cells = g.CellsIntersecting(Rect{X: 60, Y: 60, W: 60, H: 60})
	if len(cells) != 1 || cells[0] != g.GetCell(1, 1) {
		t.Errorf("CellsIntersecting(cell (1,1) bounds) = %v, want [(1,1)]", cells)
	}

	if cells := g.CellsIntersecting(Rect{X: -100, Y: -100, W: 50, H: 50}); len(cells) != 0 {
		t.Errorf("rect outside world = %v, want none", cells)
	}
	if cells := g.CellsIntersecting(Rect{X: 10, Y: 10}); cells != nil {
		t.Errorf("empty rect = %v, want nil", cells)
	}
}

type recordingListener struct {
	mu     sync.Mutex
	events []CellEvent
	cells  []*Cell
}

func (r *recordingListener) OnCellEvent(event CellEvent, cell *Cell) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.cells = append(r.cells, cell)
}

func (r *recordingListener) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestSetWalkable_NotifiesOnChange(t *testing.T) {
	g := newTestGrid(t)
	blocked := &recordingListener{}
	cleared := &recordingListener{}
	g.Subscribe(CellBlocked, blocked)
	g.Subscribe(CellCleared, cleared)

	c := g.GetCell(3, 3)
	if !g.SetWalkable(c, false) {
		t.Fatal("SetWalkable(false) on walkable cell reported no change")
	}
	if c.Walkable() {
		t.Error("cell still walkable")
	}
	if blocked.count() != 1 || blocked.cells[0] != c {
		t.Errorf("blocked listener saw %v, want [%v]", blocked.cells, c)
	}
	if cleared.count() != 0 {
		t.Errorf("cleared listener saw %d events, want 0", cleared.count())
	}

	if !g.SetWalkable(c, true) {
		t.Fatal("SetWalkable(true) on blocked cell reported no change")
	}
	if cleared.count() != 1 || cleared.events[0] != CellCleared {
		t.Errorf("cleared listener saw %v, want [CellCleared]", cleared.events)
	}
}

func TestSetWalkable_UnchangedIsSilent(t *testing.T) {
	g := newTestGrid(t)
	l := &recordingListener{}
	g.Subscribe(CellBlocked, l)
	g.Subscribe(CellCleared, l)

	c := g.GetCell(0, 0)
	before := g.Version()
	if g.SetWalkable(c, true) {
		t.Error("SetWalkable(true) on walkable cell reported a change")
	}
	if l.count() != 0 {
		t.Errorf("listener saw %d events, want 0", l.count())
	}
	if g.Version() != before {
		t.Errorf("Version() = %d, want %d", g.Version(), before)
	}
}

func TestSetWalkable_ForeignCellIgnored(t *testing.T) {
	g := newTestGrid(t)
	other := newTestGrid(t)
	if g.SetWalkable(other.GetCell(1, 1), false) {
		t.Error("SetWalkable accepted a cell from another grid")
	}
	if g.SetWalkable(nil, false) {
		t.Error("SetWalkable accepted nil")
	}
}

func TestUnsubscribe(t *testing.T) {
	g := newTestGrid(t)
	l := &recordingListener{}
	sub := g.Subscribe(CellBlocked, l)
	if g.SubscriberCount(CellBlocked) != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", g.SubscriberCount(CellBlocked))
	}
	if !g.Unsubscribe(sub) {
		t.Fatal("Unsubscribe returned false")
	}
	if g.Unsubscribe(sub) {
		t.Error("second Unsubscribe returned true")
	}
	g.SetWalkable(g.GetCell(1, 1), false)
	if l.count() != 0 {
		t.Errorf("detached listener was notified %d times", l.count())
	}
}

func TestUnsubscribe_DuringDispatch(t *testing.T) {
	g := newTestGrid(t)
	var sub Subscription
	calls := 0
	sub = g.Subscribe(CellBlocked, ListenerFunc(func(CellEvent, *Cell) {
		calls++
		g.Unsubscribe(sub)
	}))
	other := &recordingListener{}
	g.Subscribe(CellBlocked, other)

	g.SetWalkable(g.GetCell(1, 1), false)
	g.SetWalkable(g.GetCell(2, 2), false)

	if calls != 1 {
		t.Errorf("self-removing listener called %d times, want 1", calls)
	}
	if other.count() != 2 {
		t.Errorf("other listener called %d times, want 2", other.count())
	}
}

func TestReset_NotifiesEachChangedCell(t *testing.T) {
	g := newTestGrid(t)
	g.SetWalkable(g.GetCell(1, 1), false)
	g.SetWalkable(g.GetCell(2, 2), false)
	g.SetWalkable(g.GetCell(3, 3), false)

	l := &recordingListener{}
	g.Subscribe(CellCleared, l)

	if n := g.Reset(); n != 3 {
		t.Errorf("Reset() = %d, want 3", n)
	}
	if l.count() != 3 {
		t.Errorf("cleared listener saw %d events, want 3", l.count())
	}
	if g.BlockedCount() != 0 {
		t.Errorf("BlockedCount() = %d after Reset, want 0", g.BlockedCount())
	}
	if n := g.Reset(); n != 0 {
		t.Errorf("second Reset() = %d, want 0", n)
	}
}

func TestSearchLock_SerializesMutation(t *testing.T) {
	g := newTestGrid(t)
	c := g.GetCell(4, 4)

	lock := g.SearchLock()
	lock.Lock()
	done := make(chan struct{})
	go func() {
		g.SetWalkable(c, false)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("SetWalkable completed while the search lock was held")
	default:
	}
	if !c.Walkable() {
		t.Error("walkable flag changed while the search lock was held")
	}
	lock.Unlock()
	<-done
	if c.Walkable() {
		t.Error("cell still walkable after lock release")
	}
}
