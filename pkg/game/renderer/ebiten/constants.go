// Package ebiten provides an Ebiten-based 2D graphical renderer for siegepath.
package ebiten

import "image/color"

// Color palette for the map and HUD
var (
	colorBackground      = color.RGBA{26, 26, 46, 255}    // Dark blue-gray
	colorMapBackground   = color.RGBA{15, 15, 26, 255}    // Darker for map area
	colorFloor           = color.RGBA{40, 40, 58, 255}    // Walkable cell
	colorGridLine        = color.RGBA{60, 60, 80, 255}    // Cell borders
	colorStructure       = color.RGBA{180, 180, 200, 255} // Light gray-blue for placed structures
	colorBlocked         = color.RGBA{100, 60, 60, 255}   // Blocked without a structure
	colorPath            = color.RGBA{100, 150, 255, 255} // Bright blue
	colorTarget          = color.RGBA{255, 150, 255, 255} // Bright pink
	colorAgent           = color.RGBA{0, 255, 0, 255}     // Bright green
	colorAgentArrived    = color.RGBA{100, 255, 150, 255} // Pale green
	colorAgentStuck      = color.RGBA{255, 100, 100, 255} // Bright red
	colorPanelBackground = color.RGBA{30, 30, 50, 220}    // Semi-transparent dark
	colorPanelBorder     = color.RGBA{80, 80, 100, 255}
)

// Tile size constraints
const (
	defaultTileSize = 24
	minTileSize     = 8
	maxTileSize     = 96
	tileSizeStep    = 4
)

// Layout
const (
	mapMargin       = 20
	headerHeight    = 24
	debugLineHeight = 16 // ebitenutil debug font line height
	maxVisibleLines = 4
	messageLifetime = 10000 // 10 seconds in milliseconds
)
