// Package ebiten provides an Ebiten-based 2D graphical renderer for siegepath.
package ebiten

import (
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	engineinput "siegepath/pkg/engine/input"
	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/gameplay"
)

// keyCodes maps keys to the raw codes the input bindings understand
var keyCodes = []struct {
	key  ebiten.Key
	code string
}{
	{ebiten.KeyF5, "f5"},
	{ebiten.KeyG, "g"},
	{ebiten.KeyF9, "f9"},
	{ebiten.KeyF12, "f12"},
	{ebiten.KeyQ, "q"},
	{ebiten.KeyEscape, "escape"},
}

// Update handles input and ticks the session (Ebiten interface)
func (e *EbitenRenderer) Update() error {
	// Log window opening on first update (confirms window is actually running)
	if !e.windowOpenedLogged {
		e.windowOpenedLogged = true
		w, h := ebiten.WindowSize()
		log.Printf("Main window opened successfully (%dx%d)", w, h)
	}

	if e.onUpdate != nil {
		e.onUpdate()
	}

	// Handle tile size changes (= to increase, - to decrease, 0 to fit)
	e.handleZoom()

	for _, raw := range e.checkInput() {
		if gameplay.ProcessIntent(e.session, engineinput.Parse(raw)) {
			return ebiten.Termination
		}
	}

	e.session.Tick(time.Second / time.Duration(ebiten.TPS()))
	e.RenderFrame(e.session)
	return nil
}

// handleZoom handles =/- for tile size adjustment
func (e *EbitenRenderer) handleZoom() {
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) {
		e.increaseTileSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) {
		e.decreaseTileSize()
	}
	if inpututil.IsKeyJustPressed(ebiten.Key0) || inpututil.IsKeyJustPressed(ebiten.KeyNumpad0) {
		e.fitTileSize(e.windowWidth, e.windowHeight)
	}
}

// increaseTileSize increases the tile size
func (e *EbitenRenderer) increaseTileSize() {
	if e.tileSize < maxTileSize {
		e.tileSize += tileSizeStep
		e.recalculateViewport()
	}
}

// decreaseTileSize decreases the tile size
func (e *EbitenRenderer) decreaseTileSize() {
	if e.tileSize > minTileSize {
		e.tileSize -= tileSizeStep
		e.recalculateViewport()
	}
}

// checkInput returns the raw events of this frame (raw layer)
func (e *EbitenRenderer) checkInput() []engineinput.RawInput {
	var events []engineinput.RawInput
	now := time.Now()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		if pos, ok := e.cursorWorldPosition(); ok {
			events = append(events, engineinput.RawInput{
				Device:    engineinput.DeviceMouse,
				Code:      "mouse_left",
				Pos:       pos,
				HasPos:    true,
				Timestamp: now,
			})
		}
	}

	for _, k := range keyCodes {
		if inpututil.IsKeyJustPressed(k.key) {
			events = append(events, engineinput.RawInput{Device: engineinput.DeviceKeyboard, Code: k.code, Timestamp: now})
		}
	}
	// ? is Shift+/ on most layouts
	if inpututil.IsKeyJustPressed(ebiten.KeySlash) && ebiten.IsKeyPressed(ebiten.KeyShift) {
		events = append(events, engineinput.RawInput{Device: engineinput.DeviceKeyboard, Code: "?", Timestamp: now})
	}

	return events
}

// cursorWorldPosition maps the mouse cursor to a world position inside the
// cell under it. It reports false when the cursor is off the map.
func (e *EbitenRenderer) cursorWorldPosition() (world.Vec2, bool) {
	x, y := ebiten.CursorPosition()
	e.snapshotMutex.RLock()
	defer e.snapshotMutex.RUnlock()
	return screenToWorld(x, y, e.mapX, e.mapY, e.tileSize, &e.snapshot)
}

// screenToWorld converts a screen pixel to a world position that looks up
// the cell drawn there
func screenToWorld(x, y, mapX, mapY, tileSize int, snap *renderSnapshot) (world.Vec2, bool) {
	if !snap.valid || tileSize <= 0 || x < mapX || y < mapY {
		return world.Vec2{}, false
	}
	col := (x - mapX) / tileSize
	row := (y - mapY) / tileSize
	if col >= snap.gridCols || row >= snap.gridRows {
		return world.Vec2{}, false
	}
	return world.IndexPoint(col, row, snap.gridCols, snap.gridRows, snap.extent), true
}

// Layout returns the game's logical screen size (Ebiten interface)
func (e *EbitenRenderer) Layout(outsideWidth, outsideHeight int) (int, int) {
	// Recalculate viewport when window size changes
	if outsideWidth != e.windowWidth || outsideHeight != e.windowHeight {
		e.windowWidth = outsideWidth
		e.windowHeight = outsideHeight
		e.recalculateViewport()
	}
	return outsideWidth, outsideHeight
}
