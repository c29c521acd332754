// Package ebiten provides an Ebiten-based 2D graphical renderer for siegepath.
package ebiten

import (
	"sync"
	"time"

	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/state"
)

// cellKind is what a cell shows on the map, ignoring agents and paths
type cellKind uint8

const (
	cellFloor cellKind = iota
	cellStructure
	cellBlocked
)

// messageEntry represents a message with timestamp for fade-out
type messageEntry struct {
	Text      string
	Timestamp int64 // Unix timestamp in milliseconds when message was added
}

// agentSnapshot is one agent as of the last RenderFrame
type agentSnapshot struct {
	id       string
	position world.Vec2
	target   world.Vec2
	path     []world.Vec2 // remaining waypoints
	arrived  bool
	stuck    bool
}

// renderSnapshot holds a consistent snapshot of session state for rendering
// This prevents jitter from race conditions between session logic and rendering
type renderSnapshot struct {
	valid      bool
	name       string
	ticks      uint64
	elapsed    time.Duration
	gridCols   int
	gridRows   int
	cellWidth  float64
	extent     world.Vec2
	cells      []cellKind // row-major
	agents     []agentSnapshot
	structures int
	blocked    int
	showGrid   bool
	messages   []messageEntry
}

// EbitenRenderer is the Ebiten-based graphical renderer
type EbitenRenderer struct {
	// Window dimensions
	windowWidth  int
	windowHeight int

	// Tile size for rendering (adjustable with +/-)
	tileSize int

	// Viewport dimensions (in tiles) - recalculated based on window and tile size
	viewportRows int
	viewportCols int

	// Top left corner of the map on screen, as of the last Draw
	mapX, mapY int

	// Session driven by Update
	session *state.Session

	// onUpdate runs at the start of every Update, before input is handled
	onUpdate func()

	// Cached render snapshot for consistent drawing
	snapshot      renderSnapshot
	snapshotMutex sync.RWMutex

	// Flag to track if we've logged window opening
	windowOpenedLogged bool

	// Messages to display with timestamps for fade-out
	trackedMessages []messageEntry
	messagesMutex   sync.RWMutex
}
