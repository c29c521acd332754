// Package state holds a running session: the grid, its structures and the
// agents pathing across it, plus the message log shown by renderers.
package state

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/leonelquinteros/gotext"
	"github.com/zyedidia/generic/mapset"

	"siegepath/pkg/engine/pathfind"
	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/agent"
	"siegepath/pkg/game/generator"
	"siegepath/pkg/game/placement"
	"siegepath/pkg/game/scenario"
)

// ErrWorldChanged is returned when a reloaded scenario resizes the world.
// Grids keep their shape for their whole life, so such a scenario needs a
// new session.
var ErrWorldChanged = errors.New("state: world size changed")

// maxMessages is how many messages the log keeps
const maxMessages = 5

// agentStatus is what the session last reported about an agent
type agentStatus struct {
	searches uint64
	failures uint64
	stuck    bool
	arrived  bool
}

// Session is one run of a scenario.
// It is not safe for concurrent use; drive it from the simulation goroutine.
// Agent workers run in the background on their own.
type Session struct {
	Scenario    *scenario.Scenario
	Grid        *world.Grid
	Coordinator *agent.Coordinator
	Placer      *placement.Placer
	Finder      *pathfind.Pathfinder

	Messages []string
	ShowGrid bool

	Ticks   uint64
	Elapsed time.Duration

	seen map[string]*agentStatus
}

// NewSession builds the grid described by scn, places its structures and
// spawns its agents.
func NewSession(scn *scenario.Scenario) (*Session, error) {
	if err := scn.Validate(); err != nil {
		return nil, err
	}
	grid, err := world.NewGrid(scn.World.Extent(), scn.World.CellWidth)
	if err != nil {
		return nil, fmt.Errorf("state: %w", err)
	}

	s := &Session{
		Scenario:    scn,
		Grid:        grid,
		Coordinator: agent.NewCoordinator(grid, agent.Config{PollInterval: scn.PollInterval}),
		Placer:      placement.New(grid),
		Finder:      pathfind.New(grid),
		Messages:    make([]string, 0),
		ShowGrid:    true,
		seen:        make(map[string]*agentStatus),
	}
	if err := s.start(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// start lays out the structures and spawns every agent of the scenario
func (s *Session) start() error {
	if err := s.Placer.Sync(s.layout(s.Scenario)); err != nil {
		// Overlapping structures still leave a usable grid
		log.Printf("session %s: %v", s.Scenario.Name, err)
	}
	for _, spec := range s.Scenario.Agents {
		if err := s.spawn(spec); err != nil {
			return err
		}
	}
	log.Printf("session %s started: %dx%d cells, %d structures, %d agents",
		s.Scenario.Name, s.Grid.Cols(), s.Grid.Rows(), s.Placer.Count(), len(s.Scenario.Agents))
	return nil
}

func (s *Session) spawn(spec scenario.AgentSpec) error {
	a := agent.New(spec.ID, spec.Start.Vec2(), spec.Target.Vec2(), spec.Speed)
	a.SetArriveThreshold(spec.ArriveThreshold)
	if err := s.Coordinator.Spawn(a); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	s.seen[spec.ID] = &agentStatus{}
	return nil
}

// layout returns every footprint the scenario wants blocked: its own
// structures first, then the generator's walls that do not overlap them.
func (s *Session) layout(scn *scenario.Scenario) []world.Rect {
	var rects []world.Rect
	covered := mapset.New[*world.Cell]()

	for _, st := range scn.Structures {
		r := st.Rect()
		if st.IsPoint() {
			r = s.Grid.CellAt(world.Vec2{X: st.X, Y: st.Y}).Bounds()
		}
		rects = append(rects, r)
		for _, c := range s.Grid.CellsIntersecting(r) {
			covered.Put(c)
		}
	}

	if scn.Generator.Name == scenario.GeneratorNone {
		return rects
	}
	gen, err := generator.ByName(scn.Generator.Name)
	if err != nil {
		log.Printf("session %s: %v", scn.Name, err)
		return rects
	}

	keep := make([]world.Vec2, 0, len(scn.Agents)*2)
	for _, a := range scn.Agents {
		keep = append(keep, a.Start.Vec2(), a.Target.Vec2())
	}
	rng := rand.New(rand.NewSource(scn.Generator.Seed))
	for _, r := range gen.Generate(s.Grid, rng, generator.Options{Walls: scn.Generator.Walls, Keep: keep}) {
		if cells := s.Grid.CellsIntersecting(r); len(cells) == 1 && covered.Has(cells[0]) {
			continue
		}
		rects = append(rects, r)
	}
	return rects
}

// Tick advances every agent by dt and reports path failures and arrivals
// to the message log.
func (s *Session) Tick(dt time.Duration) {
	s.Coordinator.Step(dt)
	s.Ticks++
	s.Elapsed += dt

	for _, a := range s.Coordinator.Agents() {
		s.observe(a)
	}
}

func (s *Session) observe(a *agent.Agent) {
	st, ok := s.seen[a.ID()]
	if !ok {
		st = &agentStatus{}
		s.seen[a.ID()] = st
	}

	searches, failures := a.Searches(), a.Failures()
	if searches != st.searches {
		failed := failures != st.failures
		if failed && !st.stuck {
			s.AddMessage(fmt.Sprintf(gotext.Get("NO_PATH"), a.ID()))
		}
		st.stuck = failed
		st.searches, st.failures = searches, failures
	}

	arrived := a.HasArrived()
	if arrived && !st.arrived {
		s.AddMessage(fmt.Sprintf(gotext.Get("AGENT_ARRIVED"), a.ID()))
	}
	st.arrived = arrived
}

// ToggleStructure blocks the cell under pos with a structure, or removes the
// structure already there.
func (s *Session) ToggleStructure(pos world.Vec2) error {
	blocked, err := s.Placer.Toggle(pos)
	if err != nil {
		return err
	}
	cell := s.Grid.CellAt(pos)
	if blocked {
		s.AddMessage(fmt.Sprintf(gotext.Get("STRUCTURE_PLACED"), cell.GridX(), cell.GridY()))
	} else {
		s.AddMessage(fmt.Sprintf(gotext.Get("STRUCTURE_REMOVED"), cell.GridX(), cell.GridY()))
	}
	return nil
}

// Apply switches the session to a reloaded scenario without rebuilding it.
// Only structures that changed are placed or removed, agents still listed
// are retargeted in place, new agents are spawned and missing ones
// despawned. Structures placed by hand are dropped.
func (s *Session) Apply(scn *scenario.Scenario) error {
	if err := scn.Validate(); err != nil {
		return err
	}
	if scn.World != s.Scenario.World {
		return fmt.Errorf("%w: %vx%v/%v to %vx%v/%v", ErrWorldChanged,
			s.Scenario.World.Width, s.Scenario.World.Height, s.Scenario.World.CellWidth,
			scn.World.Width, scn.World.Height, scn.World.CellWidth)
	}

	var errs []error
	if err := s.Placer.Sync(s.layout(scn)); err != nil {
		errs = append(errs, err)
	}

	wanted := make(map[string]bool, len(scn.Agents))
	for _, spec := range scn.Agents {
		wanted[spec.ID] = true
		a, ok := s.Coordinator.Agent(spec.ID)
		if !ok {
			if err := s.spawn(spec); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if a.Target() != spec.Target.Vec2() {
			a.SetTarget(spec.Target.Vec2())
		}
	}
	for _, a := range s.Coordinator.Agents() {
		if wanted[a.ID()] {
			continue
		}
		if err := s.Coordinator.Despawn(a.ID()); err != nil {
			errs = append(errs, err)
		}
		delete(s.seen, a.ID())
	}

	s.Scenario = scn
	s.AddMessage(fmt.Sprintf(gotext.Get("SCENARIO_RELOADED"), scn.Name))
	return errors.Join(errs...)
}

// Reset starts the scenario over: every agent is despawned, every cell made
// walkable again and the scenario's structures and agents put back.
func (s *Session) Reset() error {
	s.Coordinator.Stop()
	s.Placer.Clear()
	cleared := s.Grid.Reset()

	s.seen = make(map[string]*agentStatus)
	s.Ticks = 0
	s.Elapsed = 0
	s.ClearMessages()
	log.Printf("session %s reset, %d cells cleared", s.Scenario.Name, cleared)

	return s.start()
}

// Close stops every agent worker
func (s *Session) Close() {
	s.Coordinator.Stop()
}

// Agents returns the running agents in spawn order
func (s *Session) Agents() []*agent.Agent {
	return s.Coordinator.Agents()
}

// AllArrived reports whether every agent has reached its target
func (s *Session) AllArrived() bool {
	for _, a := range s.Coordinator.Agents() {
		if !a.HasArrived() {
			return false
		}
	}
	return true
}

// AddMessage adds a message to the session's message log
func (s *Session) AddMessage(msg string) {
	s.Messages = append(s.Messages, msg)

	// Keep only the last maxMessages
	if len(s.Messages) > maxMessages {
		s.Messages = s.Messages[len(s.Messages)-maxMessages:]
	}
}

// ClearMessages clears all messages
func (s *Session) ClearMessages() {
	s.Messages = make([]string, 0)
}
