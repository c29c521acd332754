// Package agent keeps a path for each mobile agent up to date while the grid
// underneath changes.
//
// Every spawned agent gets one background worker. Grid notifications only
// flip the agent's dirty flag and nudge the worker; the worker then takes the
// grid's search lock, runs A* from the agent's current position to its target
// and installs the result. The simulation goroutine moves agents along their
// cached paths with Step and never waits on a search.
package agent

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"siegepath/pkg/engine/pathfind"
	"siegepath/pkg/engine/world"
)

// DefaultArriveThreshold is how close an agent must get to a waypoint before
// moving on to the next one, in world units.
const DefaultArriveThreshold = 2.0

// Agent is one mobile unit with a target and a cached path to it
type Agent struct {
	id              string
	speed           float64 // world units per second
	arriveThreshold float64

	// mu guards everything below it up to the flags
	mu       sync.Mutex
	position world.Vec2
	target   world.Vec2
	path     []world.Vec2 // nil until a search finds a path
	cursor   int
	lastCost int

	state     atomic.Int32
	dirty     atomic.Bool
	computing atomic.Bool
	searches  atomic.Uint64
	failures  atomic.Uint64

	// Worker plumbing, owned by the Coordinator
	spawned  atomic.Bool
	wake     chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	subs     []world.Subscription
}

// New creates an agent at position heading for target.
// A non-positive speed leaves the agent stationary.
func New(id string, position, target world.Vec2, speed float64) *Agent {
	return &Agent{
		id:              id,
		speed:           speed,
		arriveThreshold: DefaultArriveThreshold,
		position:        position,
		target:          target,
		wake:            make(chan struct{}, 1),
		stopChan:        make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// ID returns the agent's identifier
func (a *Agent) ID() string {
	return a.id
}

// Speed returns the agent's movement speed in world units per second
func (a *Agent) Speed() float64 {
	return a.speed
}

// SetArriveThreshold changes the waypoint arrival distance.
// Call it before the agent is spawned.
func (a *Agent) SetArriveThreshold(d float64) {
	if d > 0 {
		a.arriveThreshold = d
	}
}

// Position returns where the agent currently is
func (a *Agent) Position() world.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position
}

// Target returns where the agent is heading
func (a *Agent) Target() world.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.target
}

// SetTarget points the agent somewhere else and schedules a recompute
func (a *Agent) SetTarget(target world.Vec2) {
	a.mu.Lock()
	a.target = target
	a.mu.Unlock()

	// Unconditional: the worker clears dirty before it searches, so a retarget
	// during a search is picked up by the next one.
	a.markDirty()
}

// State returns the agent's path lifecycle state
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Dirty reports whether the cached path is waiting to be recomputed
func (a *Agent) Dirty() bool {
	return a.dirty.Load()
}

// Searches returns how many searches have completed for this agent
func (a *Agent) Searches() uint64 {
	return a.searches.Load()
}

// Failures returns how many of those searches found no path
func (a *Agent) Failures() uint64 {
	return a.failures.Load()
}

// Path returns a copy of the cached waypoints, or nil if there is no path
func (a *Agent) Path() []world.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.path)
}

// Remaining returns a copy of the waypoints not yet reached
func (a *Agent) Remaining() []world.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.path == nil {
		return nil
	}
	return slices.Clone(a.path[a.cursor:])
}

// PathCost returns the movement cost of the cached path
func (a *Agent) PathCost() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCost
}

// CurrentWaypoint returns the waypoint the agent is walking towards
func (a *Agent) CurrentWaypoint() (world.Vec2, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cursor >= len(a.path) {
		return world.Vec2{}, false
	}
	return a.path[a.cursor], true
}

// HasArrived reports whether the agent has walked past the last waypoint
// of a path.
func (a *Agent) HasArrived() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path != nil && a.cursor >= len(a.path)
}

// Step moves the agent along its cached path for dt of simulated time.
// It never blocks on a search; with no path the agent stays where it is.
func (a *Agent) Step(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	budget := a.speed * dt.Seconds()
	for budget > 0 && a.cursor < len(a.path) {
		waypoint := a.path[a.cursor]
		toward := waypoint.Sub(a.position)
		dist := toward.Length()

		if dist <= budget {
			a.position = waypoint
			budget -= dist
		} else {
			a.position = a.position.Add(toward.Scale(budget / dist))
			budget = 0
		}

		if a.position.DistanceSquared(waypoint) <= a.arriveThreshold*a.arriveThreshold {
			a.cursor++
		}
	}
}

// OnCellEvent implements world.Listener.
// A cleared cell may open a shorter route, so it always marks the path dirty;
// a blocked cell only matters if the cached path goes through it. Both are
// ignored while a search for this agent is running.
func (a *Agent) OnCellEvent(event world.CellEvent, cell *world.Cell) {
	if a.computing.Load() {
		return
	}

	switch event {
	case world.CellCleared:
		a.markDirty()
	case world.CellBlocked:
		if a.pathContains(cell.Center()) {
			a.markDirty()
		}
	}
}

func (a *Agent) pathContains(p world.Vec2) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Contains(a.path, p)
}

func (a *Agent) markDirty() {
	a.dirty.Store(true)
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

func (a *Agent) endpoints() (from, to world.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.position, a.target
}

// install replaces the cached path with a search result and restarts
// following from its first waypoint.
func (a *Agent) install(r pathfind.Result) {
	a.mu.Lock()
	if r.Found {
		a.path = r.Waypoints
		a.lastCost = r.Cost
	} else {
		a.path = nil
		a.lastCost = 0
	}
	a.cursor = 0
	a.mu.Unlock()

	a.searches.Add(1)
	if !r.Found {
		a.failures.Add(1)
	}
}

func (a *Agent) setState(s State) {
	a.state.Store(int32(s))
}
