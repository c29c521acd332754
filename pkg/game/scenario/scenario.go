// Package scenario loads the YAML files that describe a session: world size,
// agents and the structures blocking the grid at startup.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"siegepath/pkg/engine/world"
)

// ErrInvalidScenario is returned when a scenario parses but cannot be used
var ErrInvalidScenario = errors.New("scenario: invalid")

// Known generator names
const (
	GeneratorNone       = ""
	GeneratorLineWalker = "line_walker"
	GeneratorBSP        = "bsp"
)

// Scenario is the top-level document of a scenario file
type Scenario struct {
	Name         string          `yaml:"name"`
	World        WorldSpec       `yaml:"world"`
	PollInterval time.Duration   `yaml:"poll_interval"`
	Agents       []AgentSpec     `yaml:"agents"`
	Structures   []StructureSpec `yaml:"structures"`
	Generator    GeneratorSpec   `yaml:"generator"`
}

// WorldSpec sizes the grid
type WorldSpec struct {
	Width     float64 `yaml:"width"`
	Height    float64 `yaml:"height"`
	CellWidth float64 `yaml:"cell_width"`
}

// Extent returns the world size as a vector
func (w WorldSpec) Extent() world.Vec2 {
	return world.Vec2{X: w.Width, Y: w.Height}
}

// Point is a world position
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Vec2 converts the point to a world vector
func (p Point) Vec2() world.Vec2 {
	return world.Vec2{X: p.X, Y: p.Y}
}

// AgentSpec describes one agent to spawn
type AgentSpec struct {
	ID     string  `yaml:"id"`
	Start  Point   `yaml:"start"`
	Target Point   `yaml:"target"`
	Speed  float64 `yaml:"speed"`
	// ArriveThreshold is how close counts as reaching a waypoint; zero keeps
	// the agent default
	ArriveThreshold float64 `yaml:"arrive_threshold"`
}

// StructureSpec is a rectangle of world space to block. A zero size blocks
// the single cell under (x, y).
type StructureSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Rect returns the structure footprint
func (s StructureSpec) Rect() world.Rect {
	return world.Rect{X: s.X, Y: s.Y, W: s.W, H: s.H}
}

// IsPoint reports whether the structure covers a single cell
func (s StructureSpec) IsPoint() bool {
	return s.W == 0 && s.H == 0
}

// GeneratorSpec selects an obstacle generator run after the fixed structures
type GeneratorSpec struct {
	Name  string `yaml:"name"`
	Seed  int64  `yaml:"seed"`
	Walls int    `yaml:"walls"`
}

// Default returns the scenario used when no file is given: a 1920x1080 world
// of 60-unit cells with a handful of agents marching on the far corner.
func Default() *Scenario {
	return &Scenario{
		Name:         "default",
		World:        WorldSpec{Width: 1920, Height: 1080, CellWidth: 60},
		PollInterval: 17 * time.Millisecond,
		Agents: []AgentSpec{
			{ID: "grunt-1", Start: Point{X: 30, Y: 30}, Target: Point{X: 1890, Y: 1050}, Speed: 180},
			{ID: "grunt-2", Start: Point{X: 30, Y: 540}, Target: Point{X: 1890, Y: 1050}, Speed: 150},
			{ID: "grunt-3", Start: Point{X: 30, Y: 1050}, Target: Point{X: 1890, Y: 1050}, Speed: 120},
		},
		Structures: []StructureSpec{
			{X: 600, Y: 0, W: 60, H: 720},
			{X: 1200, Y: 360, W: 60, H: 720},
		},
		Generator: GeneratorSpec{Name: GeneratorNone},
	}
}

// Load reads and validates a scenario file
func Load(filename string) (*Scenario, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("scenario: load %s: %w", filename, err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario: %s: %w", filename, err)
	}
	return s, nil
}

// Parse decodes and validates a scenario document.
// Fields left out take their values from Default's world and poll interval.
func Parse(data []byte) (*Scenario, error) {
	def := Default()
	s := Scenario{
		World:        def.World,
		PollInterval: def.PollInterval,
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scenario: unmarshal: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that the scenario describes a usable session
func (s *Scenario) Validate() error {
	if s.World.Width <= 0 || s.World.Height <= 0 || s.World.CellWidth <= 0 {
		return fmt.Errorf("%w: world %vx%v with cell width %v", ErrInvalidScenario,
			s.World.Width, s.World.Height, s.World.CellWidth)
	}
	if _, err := world.NewGrid(s.World.Extent(), s.World.CellWidth); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if s.PollInterval < 0 {
		return fmt.Errorf("%w: negative poll interval %v", ErrInvalidScenario, s.PollInterval)
	}

	seen := make(map[string]bool, len(s.Agents))
	for i, a := range s.Agents {
		if a.ID == "" {
			return fmt.Errorf("%w: agent %d has no id", ErrInvalidScenario, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate agent id %q", ErrInvalidScenario, a.ID)
		}
		seen[a.ID] = true
		if a.Speed < 0 {
			return fmt.Errorf("%w: agent %q has negative speed", ErrInvalidScenario, a.ID)
		}
		if a.ArriveThreshold < 0 {
			return fmt.Errorf("%w: agent %q has negative arrive threshold", ErrInvalidScenario, a.ID)
		}
	}

	for i, st := range s.Structures {
		if st.W < 0 || st.H < 0 || (st.W == 0) != (st.H == 0) {
			return fmt.Errorf("%w: structure %d has size %vx%v", ErrInvalidScenario, i, st.W, st.H)
		}
	}

	switch s.Generator.Name {
	case GeneratorNone, GeneratorLineWalker, GeneratorBSP:
	default:
		return fmt.Errorf("%w: unknown generator %q", ErrInvalidScenario, s.Generator.Name)
	}
	if s.Generator.Walls < 0 {
		return fmt.Errorf("%w: negative generator wall count", ErrInvalidScenario)
	}
	return nil
}
