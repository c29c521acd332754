package agent

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"siegepath/pkg/engine/pathfind"
	"siegepath/pkg/engine/world"
)

// DefaultPollInterval is how often a worker checks its agent's dirty flag
// when no notification woke it earlier.
const DefaultPollInterval = 17 * time.Millisecond

var (
	// ErrAlreadySpawned is returned when spawning an agent ID twice
	ErrAlreadySpawned = errors.New("agent: already spawned")
	// ErrUnknownAgent is returned when despawning an agent that is not running
	ErrUnknownAgent = errors.New("agent: unknown agent")
)

// Config tunes a Coordinator
type Config struct {
	PollInterval time.Duration
}

// Coordinator runs one background path worker per spawned agent
type Coordinator struct {
	grid         *world.Grid
	finder       *pathfind.Pathfinder
	pollInterval time.Duration

	mu     sync.Mutex
	agents []*Agent // spawn order
	byID   map[string]*Agent
}

// NewCoordinator creates a coordinator for agents moving on grid
func NewCoordinator(grid *world.Grid, cfg Config) *Coordinator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Coordinator{
		grid:         grid,
		finder:       pathfind.New(grid),
		pollInterval: cfg.PollInterval,
		byID:         make(map[string]*Agent),
	}
}

// Grid returns the grid agents path across
func (c *Coordinator) Grid() *world.Grid {
	return c.grid
}

// PollInterval returns the worker poll period
func (c *Coordinator) PollInterval() time.Duration {
	return c.pollInterval
}

// Spawn subscribes a to grid changes, marks its path dirty and starts its
// worker. An agent can be spawned once; after Despawn, create a new one.
func (c *Coordinator) Spawn(a *Agent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.byID[a.id]; ok || !a.spawned.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrAlreadySpawned, a.id)
	}

	a.subs = []world.Subscription{
		c.grid.Subscribe(world.CellBlocked, a),
		c.grid.Subscribe(world.CellCleared, a),
	}
	a.setState(Idle)
	a.markDirty()

	c.agents = append(c.agents, a)
	c.byID[a.id] = a

	go c.run(a)
	log.Printf("agent %s spawned at %v heading for %v", a.id, a.Position(), a.Target())
	return nil
}

// Despawn unsubscribes the agent, stops its worker and waits for it to exit.
// A search already running is allowed to finish.
func (c *Coordinator) Despawn(id string) error {
	c.mu.Lock()
	a, ok := c.byID[id]
	if ok {
		delete(c.byID, id)
		for i, other := range c.agents {
			if other == a {
				c.agents = append(c.agents[:i], c.agents[i+1:]...)
				break
			}
		}
	}
	c.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	c.stopAgent(a)
	log.Printf("agent %s despawned after %d searches", a.id, a.Searches())
	return nil
}

// Stop despawns every agent
func (c *Coordinator) Stop() {
	c.mu.Lock()
	agents := c.agents
	c.agents = nil
	c.byID = make(map[string]*Agent)
	c.mu.Unlock()

	for _, a := range agents {
		c.stopAgent(a)
	}
}

// Agent returns the spawned agent with the given ID
func (c *Coordinator) Agent(id string) (*Agent, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.byID[id]
	return a, ok
}

// Agents returns the spawned agents in spawn order
func (c *Coordinator) Agents() []*Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Agent, len(c.agents))
	copy(out, c.agents)
	return out
}

// Step advances every spawned agent along its path
func (c *Coordinator) Step(dt time.Duration) {
	for _, a := range c.Agents() {
		a.Step(dt)
	}
}

func (c *Coordinator) stopAgent(a *Agent) {
	for _, s := range a.subs {
		c.grid.Unsubscribe(s)
	}
	a.stopOnce.Do(func() {
		close(a.stopChan)
	})
	<-a.done
}

// run is the agent's worker loop. It wakes on every tick or notification
// and recomputes when the path is dirty.
func (c *Coordinator) run(a *Agent) {
	defer close(a.done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		c.recompute(a)

		select {
		case <-a.stopChan:
			return
		case <-ticker.C:
		case <-a.wake:
		}
	}
}

// recompute runs one search if the path is dirty and none is in flight
func (c *Coordinator) recompute(a *Agent) {
	if !a.dirty.Load() || !a.computing.CompareAndSwap(false, true) {
		return
	}
	a.dirty.Store(false)
	a.setState(Requesting)

	from, to := a.endpoints()

	lock := c.grid.SearchLock()
	lock.Lock()
	a.setState(Computing)
	result := c.finder.Search(from, to)

	// Install and clear computing before releasing the lock. Any change the
	// search did not see is made after the release, so its notification
	// finds the new path and computing already false.
	a.install(result)
	a.computing.Store(false)
	a.setState(Idle)
	lock.Unlock()

	if !result.Found {
		log.Printf("agent %s: no path from %v to %v", a.id, from, to)
	}
}
