package agent

import (
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"testing"
	"time"

	"siegepath/pkg/engine/world"
)

const testPoll = 2 * time.Millisecond

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newCoordinator(t *testing.T, g *world.Grid) *Coordinator {
	t.Helper()
	c := NewCoordinator(g, Config{PollInterval: testPoll})
	t.Cleanup(c.Stop)
	return c
}

func spawn(t *testing.T, c *Coordinator, a *Agent) {
	t.Helper()
	if err := c.Spawn(a); err != nil {
		t.Fatalf("Spawn(%s): %v", a.ID(), err)
	}
	waitFor(t, "first search of "+a.ID(), func() bool { return a.Searches() > 0 && a.State() == Idle })
}

func TestCoordinator_SpawnComputesPath(t *testing.T) {
	g := newTestGrid(t, 3, 3)
	c := newCoordinator(t, g)
	a := New("a", g.GetCell(0, 0).Center(), g.GetCell(2, 2).Center(), 100)
	spawn(t, c, a)

	want := []world.Vec2{g.GetCell(1, 1).Center(), g.GetCell(2, 2).Center()}
	if got := a.Path(); !slices.Equal(got, want) {
		t.Errorf("Path() = %v, want %v", got, want)
	}
	if a.PathCost() != 28 {
		t.Errorf("PathCost() = %d, want 28", a.PathCost())
	}
	if a.State() != Idle {
		t.Errorf("State() = %v after search, want Idle", a.State())
	}
	if a.Dirty() {
		t.Error("Dirty() = true after search")
	}
}

func TestCoordinator_WalksToTarget(t *testing.T) {
	g := newTestGrid(t, 8, 8)
	c := newCoordinator(t, g)
	target := g.GetCell(7, 5).Center()
	a := New("a", g.GetCell(0, 0).Center(), target, 120)
	spawn(t, c, a)

	for i := 0; i < 200 && !a.HasArrived(); i++ {
		c.Step(50 * time.Millisecond)
	}
	if !a.HasArrived() {
		t.Fatalf("agent at %v never arrived at %v", a.Position(), target)
	}
	if a.Position() != target {
		t.Errorf("Position() = %v, want %v", a.Position(), target)
	}
}

func TestCoordinator_BlockOnPathRecomputes(t *testing.T) {
	g := newTestGrid(t, 3, 3)
	c := newCoordinator(t, g)
	a := New("a", g.GetCell(0, 0).Center(), g.GetCell(2, 2).Center(), 100)
	spawn(t, c, a)
	before := a.Searches()

	g.SetWalkable(g.GetCell(1, 1), false)
	waitFor(t, "recompute after on-path block", func() bool { return a.Searches() > before })

	if slices.Contains(a.Path(), g.GetCell(1, 1).Center()) {
		t.Errorf("Path() = %v still crosses the blocked cell", a.Path())
	}
	if a.PathCost() != 34 {
		t.Errorf("PathCost() = %d, want 34", a.PathCost())
	}
}

func TestCoordinator_BlockOffPathKeepsPath(t *testing.T) {
	g := newTestGrid(t, 6, 6)
	c := newCoordinator(t, g)
	a := New("a", g.GetCell(0, 0).Center(), g.GetCell(5, 0).Center(), 100)
	spawn(t, c, a)
	before := a.Searches()
	path := a.Path()

	g.SetWalkable(g.GetCell(2, 4), false)
	time.Sleep(20 * testPoll)

	if a.Searches() != before {
		t.Errorf("Searches() = %d, want %d: off-path block triggered a recompute", a.Searches(), before)
	}
	if !slices.Equal(a.Path(), path) {
		t.Errorf("Path() changed from %v to %v", path, a.Path())
	}
}

func TestCoordinator_NoPathRetriedOnClear(t *testing.T) {
	g := newTestGrid(t, 5, 5)
	goal := g.GetCell(4, 4)
	walls := g.Neighbors(goal)
	for _, w := range walls {
		g.SetWalkable(w, false)
	}

	c := newCoordinator(t, g)
	start := g.GetCell(0, 0).Center()
	a := New("a", start, goal.Center(), 100)
	spawn(t, c, a)

	if a.Path() != nil || a.Failures() != 1 {
		t.Fatalf("Path() = %v, Failures() = %d, want nil and 1", a.Path(), a.Failures())
	}
	c.Step(time.Second)
	if a.Position() != start {
		t.Errorf("agent without a path moved to %v", a.Position())
	}

	g.SetWalkable(walls[0], true)
	waitFor(t, "path after clearing a wall", func() bool { return a.Path() != nil })
	if last := a.Path()[len(a.Path())-1]; last != goal.Center() {
		t.Errorf("path ends at %v, want %v", last, goal.Center())
	}
}

func TestCoordinator_SetTargetRecomputes(t *testing.T) {
	g := newTestGrid(t, 6, 6)
	c := newCoordinator(t, g)
	a := New("a", g.GetCell(0, 0).Center(), g.GetCell(5, 0).Center(), 100)
	spawn(t, c, a)

	next := g.GetCell(0, 5).Center()
	a.SetTarget(next)
	waitFor(t, "path to the new target", func() bool {
		p := a.Path()
		return len(p) > 0 && p[len(p)-1] == next
	})
}

func TestCoordinator_DespawnUnsubscribes(t *testing.T) {
	g := newTestGrid(t, 4, 4)
	c := newCoordinator(t, g)
	a := New("a", g.GetCell(0, 0).Center(), g.GetCell(3, 3).Center(), 100)
	b := New("b", g.GetCell(3, 0).Center(), g.GetCell(0, 3).Center(), 100)
	spawn(t, c, a)
	spawn(t, c, b)

	for _, ev := range []world.CellEvent{world.CellBlocked, world.CellCleared} {
		if n := g.SubscriberCount(ev); n != 2 {
			t.Errorf("SubscriberCount(%v) = %d, want 2", ev, n)
		}
	}

	if err := c.Despawn("a"); err != nil {
		t.Fatalf("Despawn: %v", err)
	}
	for _, ev := range []world.CellEvent{world.CellBlocked, world.CellCleared} {
		if n := g.SubscriberCount(ev); n != 1 {
			t.Errorf("SubscriberCount(%v) after despawn = %d, want 1", ev, n)
		}
	}
	if _, ok := c.Agent("a"); ok {
		t.Error("Agent(a) still registered")
	}
	if got := c.Agents(); len(got) != 1 || got[0] != b {
		t.Errorf("Agents() = %v, want [b]", got)
	}

	// The stopped worker must not pick up new work
	before := a.Searches()
	g.SetWalkable(g.GetCell(1, 1), false)
	time.Sleep(10 * testPoll)
	if a.Searches() != before {
		t.Error("despawned agent kept searching")
	}

	if err := c.Despawn("a"); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("second Despawn error = %v, want ErrUnknownAgent", err)
	}
}

func TestCoordinator_SpawnTwice(t *testing.T) {
	g := newTestGrid(t, 4, 4)
	c := newCoordinator(t, g)
	a := New("a", g.GetCell(0, 0).Center(), g.GetCell(3, 3).Center(), 100)
	spawn(t, c, a)

	if err := c.Spawn(a); !errors.Is(err, ErrAlreadySpawned) {
		t.Errorf("Spawn(a) again error = %v, want ErrAlreadySpawned", err)
	}
	dup := New("a", world.Vec2{}, world.Vec2{}, 1)
	if err := c.Spawn(dup); !errors.Is(err, ErrAlreadySpawned) {
		t.Errorf("Spawn(duplicate id) error = %v, want ErrAlreadySpawned", err)
	}

	if err := c.Despawn("a"); err != nil {
		t.Fatalf("Despawn: %v", err)
	}
	if err := c.Spawn(a); !errors.Is(err, ErrAlreadySpawned) {
		t.Errorf("respawning a stopped agent error = %v, want ErrAlreadySpawned", err)
	}
}

func TestCoordinator_StopIsIdempotent(t *testing.T) {
	g := newTestGrid(t, 4, 4)
	c := NewCoordinator(g, Config{})
	if c.PollInterval() != DefaultPollInterval {
		t.Errorf("PollInterval() = %v, want %v", c.PollInterval(), DefaultPollInterval)
	}
	spawn(t, c, New("a", g.GetCell(0, 0).Center(), g.GetCell(3, 3).Center(), 100))
	c.Stop()
	c.Stop()
	if len(c.Agents()) != 0 {
		t.Errorf("Agents() = %v after Stop", c.Agents())
	}
	if n := g.SubscriberCount(world.CellBlocked); n != 0 {
		t.Errorf("SubscriberCount = %d after Stop, want 0", n)
	}
}

// Many workers search while the test goroutine keeps flipping cells and the
// agents keep moving. Once mutation stops every agent must settle on a path
// that only crosses walkable cells. Run with -race.
func TestCoordinator_ConcurrentMutation(t *testing.T) {
	g := newTestGrid(t, 20, 20)
	c := newCoordinator(t, g)
	rng := rand.New(rand.NewSource(11))

	var agents []*Agent
	for i := 0; i < 12; i++ {
		start := g.GetCell(0, i).Center()
		target := g.GetCell(19, 19-i).Center()
		a := New(fmt.Sprintf("agent-%d", i), start, target, 200)
		if err := c.Spawn(a); err != nil {
			t.Fatalf("Spawn: %v", err)
		}
		agents = append(agents, a)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			c.Step(5 * time.Millisecond)
			time.Sleep(time.Millisecond)
		}
	}()

	// Columns 0 and 19 are never touched
	for i := 0; i < 2000; i++ {
		cell := g.GetCell(1+rng.Intn(18), rng.Intn(20))
		g.SetWalkable(cell, rng.Intn(3) != 0)
	}
	close(stop)
	wg.Wait()

	// Settle on a known layout: a wall down column 10 with a gap at the top
	g.Reset()
	for y := 5; y < 20; y++ {
		g.SetWalkable(g.GetCell(10, y), false)
	}
	for _, a := range agents {
		waitFor(t, a.ID()+" to settle", func() bool {
			return !a.Dirty() && a.State() == Idle && a.Path() != nil
		})
	}

	lock := g.SearchLock()
	lock.Lock()
	defer lock.Unlock()
	for _, a := range agents {
		for _, wp := range a.Remaining() {
			if cell := g.CellAt(wp); !cell.Walkable() {
				t.Errorf("%s path crosses blocked %v", a.ID(), cell)
			}
		}
	}
}
