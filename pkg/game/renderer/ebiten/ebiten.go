// Package ebiten provides an Ebiten-based 2D graphical renderer for siegepath.
// Ebiten is a 2D game library for Go: https://ebiten.org/
//
// The renderer also owns the simulation loop while it runs: every Update
// handles mouse and keyboard input, ticks the session and captures a
// snapshot that the next Draw paints.
package ebiten

import (
	"fmt"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/leonelquinteros/gotext"

	"siegepath/pkg/game/renderer"
	"siegepath/pkg/game/state"
)

// New creates a new Ebiten renderer for s
func New(s *state.Session) *EbitenRenderer {
	return &EbitenRenderer{
		windowWidth:  1280,
		windowHeight: 800,
		tileSize:     defaultTileSize,
		viewportRows: 15,
		viewportCols: 25,
		session:      s,
	}
}

// Init sets up the window
func (e *EbitenRenderer) Init() {
	ebiten.SetWindowSize(e.windowWidth, e.windowHeight)
	ebiten.SetWindowTitle("siegepath")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	e.fitTileSize(e.windowWidth, e.windowHeight)
}

// Clear is a no-op; Draw fills the whole screen every frame
func (e *EbitenRenderer) Clear() {}

// OnUpdate registers fn to run at the start of every Update, on the
// simulation goroutine
func (e *EbitenRenderer) OnUpdate(fn func()) {
	e.onUpdate = fn
}

// Run starts the Ebiten game loop and blocks until the window closes or the
// user quits
func (e *EbitenRenderer) Run() error {
	e.RenderFrame(e.session)
	return ebiten.RunGame(e)
}

// StyleText applies a style to text
// The debug font has a single color, so text is returned as-is
func (e *EbitenRenderer) StyleText(text string, style renderer.TextStyle) string {
	return text
}

// FormatText formats a message with the markup system, translating GT{}
// operands and dropping every other function name
func (e *EbitenRenderer) FormatText(msg string, args ...any) string {
	ret := fmt.Sprintf(msg, args...)
	for _, match := range renderer.MarkupPattern().FindAllStringSubmatch(ret, -1) {
		val := match[2]
		if match[1] == "GT" {
			val = gotext.Get(val)
		}
		ret = strings.Replace(ret, match[0], val, -1)
	}
	return ret
}

// ShowMessage displays a message in the fading message panel
func (e *EbitenRenderer) ShowMessage(msg string) {
	e.messagesMutex.Lock()
	defer e.messagesMutex.Unlock()
	e.trackedMessages = append(e.trackedMessages, messageEntry{Text: msg, Timestamp: time.Now().UnixMilli()})
}

// GetViewportSize returns the current viewport dimensions
func (e *EbitenRenderer) GetViewportSize() (rows, cols int) {
	return e.viewportRows, e.viewportCols
}

// fitTileSize picks the largest tile size that shows the whole grid in a
// window of the given size
func (e *EbitenRenderer) fitTileSize(w, h int) {
	if e.session == nil {
		return
	}
	cols, rows := e.session.Grid.Cols(), e.session.Grid.Rows()
	availableWidth := w - mapMargin*2
	availableHeight := h - headerHeight - mapMargin*2

	size := min(availableWidth/cols, availableHeight/rows)
	e.tileSize = max(minTileSize, min(size, maxTileSize))
	e.recalculateViewport()
}

// recalculateViewport recalculates viewport dimensions based on current window and tile size
func (e *EbitenRenderer) recalculateViewport() {
	availableHeight := e.windowHeight - headerHeight - mapMargin*2
	availableWidth := e.windowWidth - mapMargin*2

	e.viewportCols = max(availableWidth/e.tileSize, 1)
	e.viewportRows = max(availableHeight/e.tileSize, 1)
}
