package renderer

import (
	"fmt"
	"regexp"

	"siegepath/pkg/game/state"
)

// TextStyle represents different text styling options
type TextStyle int

const (
	StyleNormal TextStyle = iota
	StyleWalkable
	StyleStructure
	StyleBlocked
	StyleWaypoint
	StyleTarget
	StyleAgent
	StyleAction
	StyleActionShort
	StyleDenied
	StyleSubtle
)

// Renderer defines the interface for session rendering backends
type Renderer interface {
	// Init initializes the renderer (colors, window, etc.)
	Init()

	// Clear clears the display
	Clear()

	// RenderFrame renders a complete frame: the grid, structures, agents and
	// their paths, plus the message log
	RenderFrame(s *state.Session)

	// StyleText applies a style to text and returns the styled string
	// For TUI this applies ANSI colors, for GUI it may return markup
	StyleText(text string, style TextStyle) string

	// FormatText formats a message with the renderer's markup system
	FormatText(msg string, args ...any) string

	// ShowMessage displays a message to the user
	ShowMessage(msg string)

	// GetViewportSize returns how many grid cells fit on screen (rows, cols)
	GetViewportSize() (rows, cols int)
}

// Current holds the active renderer instance
var Current Renderer

// SetRenderer sets the active renderer
func SetRenderer(r Renderer) {
	Current = r
}

// Init initializes the current renderer
func Init() {
	if Current != nil {
		Current.Init()
	}
}

// Clear clears the display using the current renderer
func Clear() {
	if Current != nil {
		Current.Clear()
	}
}

// RenderFrame renders a complete frame
func RenderFrame(s *state.Session) {
	if Current != nil {
		Current.RenderFrame(s)
	}
}

// StyleText applies a style to text
func StyleText(text string, style TextStyle) string {
	if Current != nil {
		return Current.StyleText(text, style)
	}
	return text
}

// FormatText formats a message with markup
func FormatText(msg string, args ...any) string {
	if Current != nil {
		return Current.FormatText(msg, args...)
	}
	return msg
}

// ShowMessage displays a message with the current renderer
func ShowMessage(msg string) {
	if Current != nil {
		Current.ShowMessage(msg)
	}
}

// GetViewportSize returns viewport dimensions
func GetViewportSize() (rows, cols int) {
	if Current != nil {
		return Current.GetViewportSize()
	}
	return 24, 40 // sensible defaults
}

// ApplyMarkup formats a message with the current renderer's markup, or
// strips the markup when no renderer is set
func ApplyMarkup(msg string, args ...any) string {
	if Current != nil {
		return Current.FormatText(msg, args...)
	}
	return StripMarkup(fmt.Sprintf(msg, args...))
}

var markupPattern = regexp.MustCompile(`([A-Z_]*){([^{}]+)}`)

// StripMarkup replaces every FUNC{operand} with its bare operand
func StripMarkup(msg string) string {
	return markupPattern.ReplaceAllString(msg, "$2")
}

// MarkupPattern returns the expression renderers use to find markup;
// submatch 1 is the function and submatch 2 its operand
func MarkupPattern() *regexp.Regexp {
	return markupPattern
}
