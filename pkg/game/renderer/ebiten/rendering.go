// Package ebiten provides an Ebiten-based 2D graphical renderer for siegepath.
package ebiten

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/renderer"
)

// Draw renders the session to the screen (Ebiten interface)
func (e *EbitenRenderer) Draw(screen *ebiten.Image) {
	// Fill background first
	screen.Fill(colorBackground)

	// Get snapshot for consistent rendering
	e.snapshotMutex.RLock()
	defer e.snapshotMutex.RUnlock()
	snap := &e.snapshot
	if !snap.valid {
		return
	}

	screenWidth, screenHeight := screen.Bounds().Dx(), screen.Bounds().Dy()

	// Map area, centered horizontally below the header
	mapAreaWidth := snap.gridCols * e.tileSize
	mapAreaHeight := snap.gridRows * e.tileSize
	e.mapX = max((screenWidth-mapAreaWidth)/2, mapMargin)
	e.mapY = headerHeight + mapMargin

	e.drawHeader(screen, snap)

	vector.DrawFilledRect(screen, float32(e.mapX-mapMargin/2), float32(e.mapY-mapMargin/2),
		float32(mapAreaWidth+mapMargin), float32(mapAreaHeight+mapMargin),
		colorMapBackground, false)

	e.drawCells(screen, snap)
	if snap.showGrid {
		e.drawGridLines(screen, snap)
	}
	e.drawAgents(screen, snap)

	// Draw messages panel as a bottom‑aligned overlay, limited to a few lines
	e.drawMessages(screen, snap, screenWidth, screenHeight)
}

// drawHeader prints the scenario name and counters along the top
func (e *EbitenRenderer) drawHeader(screen *ebiten.Image, snap *renderSnapshot) {
	arrived := 0
	for _, a := range snap.agents {
		if a.arrived {
			arrived++
		}
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s  tick %d  %.1fs  agents %d/%d  structures %d  blocked %d  (click: toggle, G: grid, F5: reset, F9: dump, Q: quit)",
		snap.name, snap.ticks, snap.elapsed.Seconds(), arrived, len(snap.agents),
		snap.structures, snap.blocked), mapMargin, 4)
}

// cellOrigin returns the top left pixel of the cell at col,row
func (e *EbitenRenderer) cellOrigin(col, row int) (float32, float32) {
	return float32(e.mapX + col*e.tileSize), float32(e.mapY + row*e.tileSize)
}

// toScreen converts a world position to a screen pixel
func (e *EbitenRenderer) toScreen(snap *renderSnapshot, p world.Vec2) (float32, float32) {
	scale := float64(e.tileSize) / snap.cellWidth
	return float32(float64(e.mapX) + p.X*scale), float32(float64(e.mapY) + p.Y*scale)
}

// drawCells fills every cell with the color of what blocks it
func (e *EbitenRenderer) drawCells(screen *ebiten.Image, snap *renderSnapshot) {
	size := float32(e.tileSize)
	for row := 0; row < snap.gridRows; row++ {
		for col := 0; col < snap.gridCols; col++ {
			var c color.Color
			switch snap.cells[row*snap.gridCols+col] {
			case cellStructure:
				c = colorStructure
			case cellBlocked:
				c = colorBlocked
			default:
				c = colorFloor
			}
			x, y := e.cellOrigin(col, row)
			vector.DrawFilledRect(screen, x, y, size, size, c, false)
		}
	}
}

// drawGridLines outlines the cells
func (e *EbitenRenderer) drawGridLines(screen *ebiten.Image, snap *renderSnapshot) {
	left, top := e.cellOrigin(0, 0)
	right, bottom := e.cellOrigin(snap.gridCols, snap.gridRows)
	for col := 0; col <= snap.gridCols; col++ {
		x, _ := e.cellOrigin(col, 0)
		vector.StrokeLine(screen, x, top, x, bottom, 1, colorGridLine, false)
	}
	for row := 0; row <= snap.gridRows; row++ {
		_, y := e.cellOrigin(0, row)
		vector.StrokeLine(screen, left, y, right, y, 1, colorGridLine, false)
	}
}

// drawAgents draws each agent's remaining path, its target and the agent itself
func (e *EbitenRenderer) drawAgents(screen *ebiten.Image, snap *renderSnapshot) {
	radius := float32(e.tileSize) / 3
	for _, a := range snap.agents {
		// Path from the agent through its remaining waypoints
		px, py := e.toScreen(snap, a.position)
		for _, wp := range a.path {
			wx, wy := e.toScreen(snap, wp)
			vector.StrokeLine(screen, px, py, wx, wy, 2, colorPath, true)
			px, py = wx, wy
		}

		tx, ty := e.toScreen(snap, a.target)
		vector.StrokeCircle(screen, tx, ty, radius, 2, colorTarget, true)

		c := colorAgent
		switch {
		case a.arrived:
			c = colorAgentArrived
		case a.stuck:
			c = colorAgentStuck
		}
		ax, ay := e.toScreen(snap, a.position)
		vector.DrawFilledCircle(screen, ax, ay, radius, c, true)
		if e.tileSize >= 16 {
			ebitenutil.DebugPrintAt(screen, a.id, int(ax+radius), int(ay-radius)-debugLineHeight/2)
		}
	}
}

// drawMessages draws the most recent messages in a panel at the bottom of
// the window. The debug font has a fixed color, so old messages are dropped
// rather than faded.
func (e *EbitenRenderer) drawMessages(screen *ebiten.Image, snap *renderSnapshot, screenWidth, screenHeight int) {
	if len(snap.messages) == 0 {
		// No messages to show, so don't draw any panel background
		return
	}

	// Take the last maxVisibleLines messages (most recent)
	visible := snap.messages[max(len(snap.messages)-maxVisibleLines, 0):]

	const charWidth = 6 // debug font glyph width
	maxTextWidth := 0
	lines := make([]string, len(visible))
	for i, m := range visible {
		lines[i] = renderer.StripMarkup(m.Text)
		maxTextWidth = max(maxTextWidth, len(lines[i])*charWidth)
	}

	panelWidth := min(max(maxTextWidth+20, 100), screenWidth-40)
	panelHeight := len(lines)*debugLineHeight + 10
	bgX := float32((screenWidth - panelWidth) / 2)
	bgY := float32(max(screenHeight-mapMargin-panelHeight, 0))

	// Border
	vector.DrawFilledRect(screen, bgX-1, bgY-1, float32(panelWidth)+2, float32(panelHeight)+2, colorPanelBorder, false)
	// Background
	vector.DrawFilledRect(screen, bgX, bgY, float32(panelWidth), float32(panelHeight), colorPanelBackground, false)

	for i, line := range lines {
		ebitenutil.DebugPrintAt(screen, line, int(bgX)+10, int(bgY)+5+i*debugLineHeight)
	}
}
