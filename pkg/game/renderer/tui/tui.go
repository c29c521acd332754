package tui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/gookit/color"
	"github.com/leonelquinteros/gotext"

	"siegepath/pkg/engine/input"
	"siegepath/pkg/engine/terminal"
	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/agent"
	"siegepath/pkg/game/renderer"
	"siegepath/pkg/game/state"
)

// Icon constants for the terminal map
const (
	IconAgent     = "@"
	IconStructure = "▒"
	IconBlocked   = "░"
	IconFloor     = "·"
	IconVoid      = " "
	IconWaypoint  = "•"
	IconTarget    = "◎"
)

// Viewport margins and minimum sizes
const (
	ViewportMinRows    = 7
	ViewportMinCols    = 15
	ViewportSideMargin = 2
	// Lines needed outside viewport:
	// - Header + blank (2)
	// - Blank under the map (1)
	// - Agents pane (header + one line per agent, at most 6)
	// - Actions (1)
	// - Messages pane (header + 5 messages + footer = 7)
	// - Input prompt (2)
	ViewportTopMargin = 20
)

// dynamicGet is used for runtime translation key lookups.
// We use a function variable to avoid go vet's non-constant format string check,
// since we intentionally look up translation keys dynamically from markup.
var dynamicGet = gotext.Get

// TUIRenderer is the terminal-based renderer implementation
type TUIRenderer struct {
	out io.Writer

	colorFloor       color.Style
	colorStructure   color.Style
	colorBlocked     color.Style
	colorWaypoint    color.Style
	colorTarget      color.Style
	colorAgent       color.Style
	colorAction      color.Style
	colorActionShort color.Style
	colorDenied      color.Style
	colorFile        color.Style
	colorSubtle      color.Style
	colorArrived     color.Style

	regexpStringFunctions *regexp.Regexp
}

// New creates a new TUI renderer writing to stdout
func New() *TUIRenderer {
	return &TUIRenderer{out: os.Stdout}
}

// NewWriter creates a TUI renderer writing to w
func NewWriter(w io.Writer) *TUIRenderer {
	return &TUIRenderer{out: w}
}

// Init initializes the TUI renderer (colors, etc.)
func (t *TUIRenderer) Init() {
	t.colorFloor = color.Style{color.FgGray}
	t.colorStructure = color.Style{color.FgYellow, color.OpBold}
	t.colorBlocked = color.Style{color.FgRed}
	t.colorWaypoint = color.Style{color.FgCyan}
	t.colorTarget = color.Style{color.FgMagenta, color.OpBold}
	t.colorAgent = color.Style{color.FgGreen, color.BgBlack, color.OpBold}
	t.colorAction = color.Style{color.FgMagenta}
	t.colorActionShort = color.Style{color.FgMagenta, color.OpBold}
	t.colorDenied = color.Style{color.FgRed, color.OpBold}
	t.colorFile = color.Style{color.FgBlue}
	t.colorSubtle = color.Style{color.FgGray, color.OpBold}
	t.colorArrived = color.Style{color.FgGreen}

	t.regexpStringFunctions = renderer.MarkupPattern()
}

// Clear clears the terminal screen
func (t *TUIRenderer) Clear() {
	c := exec.Command("clear")
	c.Stdout = t.out
	c.Run()
}

// StyleText applies a style to text
func (t *TUIRenderer) StyleText(text string, style renderer.TextStyle) string {
	switch style {
	case renderer.StyleWalkable:
		return t.colorFloor.Sprint(text)
	case renderer.StyleStructure:
		return t.colorStructure.Sprint(text)
	case renderer.StyleBlocked:
		return t.colorBlocked.Sprint(text)
	case renderer.StyleWaypoint:
		return t.colorWaypoint.Sprint(text)
	case renderer.StyleTarget:
		return t.colorTarget.Sprint(text)
	case renderer.StyleAgent:
		return t.colorAgent.Sprint(text)
	case renderer.StyleAction:
		return t.colorAction.Sprint(text)
	case renderer.StyleActionShort:
		return t.colorActionShort.Sprint(text)
	case renderer.StyleDenied:
		return t.colorDenied.Sprint(text)
	case renderer.StyleSubtle:
		return t.colorSubtle.Sprint(text)
	default:
		return text
	}
}

// FormatText formats a message with the markup system
func (t *TUIRenderer) FormatText(msg string, args ...any) string {
	ret := fmt.Sprintf(msg, args...)

	matches := t.regexpStringFunctions.FindAllStringSubmatch(ret, -1)

	for _, match := range matches {
		function := match[1]
		operand := match[2]

		var val string

		switch function {
		case "":
			val = operand
		case "GT":
			val = dynamicGet(operand)
		case "ACTION":
			val = t.colorActionShort.Sprint(operand[0:1]) + t.colorAction.Sprint(operand[1:])
		case "AGENT":
			val = t.colorAgent.Sprint(operand)
		case "CELL":
			val = t.colorWaypoint.Sprint(operand)
		case "FILE":
			val = t.colorFile.Sprint(operand)
		case "DENIED":
			val = t.colorDenied.Sprint(operand)
		default:
			ret = fmt.Sprintf("ERROR, function not found: %v -> %v", function, operand)
			continue
		}

		ret = strings.Replace(ret, match[0], val, -1)
	}

	return ret
}

// ShowMessage displays a message to the user
func (t *TUIRenderer) ShowMessage(msg string) {
	fmt.Fprintln(t.out, msg)
}

// GetViewportSize returns the viewport dimensions based on terminal size
func (t *TUIRenderer) GetViewportSize() (rows, cols int) {
	termWidth, termHeight := terminal.GetSize()

	// Calculate available space
	cols = termWidth - (ViewportSideMargin * 2)
	rows = termHeight - ViewportTopMargin

	// Ensure minimum size
	if cols < ViewportMinCols {
		cols = ViewportMinCols
	}
	if rows < ViewportMinRows {
		rows = ViewportMinRows
	}

	return rows, cols
}

// RenderFrame renders a complete session frame
func (t *TUIRenderer) RenderFrame(s *state.Session) {
	// Scenario header in top left
	fmt.Fprint(t.out, t.colorAction.Sprint(s.Scenario.Name))
	fmt.Fprint(t.out, t.colorSubtle.Sprintf("  tick %d  %.1fs  structures %d  blocked %d\n\n",
		s.Ticks, s.Elapsed.Seconds(), s.Placer.Count(), s.Grid.BlockedCount()))

	// Render the map
	t.printMap(s)

	// Agent status
	t.printAgentsPane(s)

	// Actions
	t.printPossibleActions()

	// Messages pane
	t.printMessagesPane(s)

	// Input prompt
	if input.IsInteractive() {
		fmt.Fprintf(t.out, "\n> ")
	}
}

// printBullet prints a bulleted item
func (t *TUIRenderer) printBullet(txt string) {
	fmt.Fprint(t.out, "- "+t.FormatText("%s", txt)+"\n")
}

// marks is what sits on top of the cells this frame
type marks struct {
	agents    map[*world.Cell]bool
	targets   map[*world.Cell]bool
	waypoints map[*world.Cell]bool
}

func collectMarks(s *state.Session) marks {
	m := marks{
		agents:    make(map[*world.Cell]bool),
		targets:   make(map[*world.Cell]bool),
		waypoints: make(map[*world.Cell]bool),
	}
	for _, a := range s.Agents() {
		m.agents[s.Grid.CellAt(a.Position())] = true
		m.targets[s.Grid.CellAt(a.Target())] = true
		for _, p := range a.Remaining() {
			m.waypoints[s.Grid.CellAt(p)] = true
		}
	}
	return m
}

// renderCell returns the string representation of a cell
func (t *TUIRenderer) renderCell(s *state.Session, m marks, c *world.Cell) string {
	if c == nil {
		return IconVoid
	}

	switch {
	case m.agents[c]:
		return t.colorAgent.Sprint(IconAgent)
	case m.targets[c]:
		return t.colorTarget.Sprint(IconTarget)
	case s.Placer.Occupies(c):
		return t.colorStructure.Sprint(IconStructure)
	case !c.Walkable():
		return t.colorBlocked.Sprint(IconBlocked)
	case m.waypoints[c]:
		return t.colorWaypoint.Sprint(IconWaypoint)
	case s.ShowGrid:
		return t.colorFloor.Sprint(IconFloor)
	default:
		return IconVoid
	}
}

// printMap draws the grid from its top left corner, clipped to the viewport
func (t *TUIRenderer) printMap(s *state.Session) {
	viewportRows, viewportCols := t.GetViewportSize()
	m := collectMarks(s)
	indent := strings.Repeat(" ", ViewportSideMargin)

	rows := min(viewportRows, s.Grid.Rows())
	cols := min(viewportCols, s.Grid.Cols())
	for y := range rows {
		fmt.Fprint(t.out, indent)
		for x := range cols {
			fmt.Fprint(t.out, t.renderCell(s, m, s.Grid.GetCell(x, y)))
		}
		if cols < s.Grid.Cols() {
			fmt.Fprint(t.out, t.colorSubtle.Sprint("›"))
		}
		fmt.Fprint(t.out, "\n")
	}
	if rows < s.Grid.Rows() {
		fmt.Fprintln(t.out, indent+t.colorSubtle.Sprintf("(%d more rows)", s.Grid.Rows()-rows))
	}

	fmt.Fprintln(t.out, "")
}

// agentLine describes one agent on a single line
func (t *TUIRenderer) agentLine(s *state.Session, a *agent.Agent) string {
	cell := s.Grid.CellAt(a.Position())
	target := s.Grid.CellAt(a.Target())

	var status string
	switch {
	case a.HasArrived():
		status = t.colorArrived.Sprint("arrived")
	case a.Path() == nil && a.Searches() > 0:
		status = t.colorDenied.Sprint("no path")
	default:
		status = t.colorSubtle.Sprint(a.State().String())
	}

	return fmt.Sprintf("%s %d,%d → %d,%d  %s  %s",
		t.colorAgent.Sprint(a.ID()), cell.GridX(), cell.GridY(), target.GridX(), target.GridY(),
		status, t.colorSubtle.Sprintf("waypoints %d cost %d searches %d",
			len(a.Remaining()), a.PathCost(), a.Searches()))
}

// printAgentsPane lists every agent's position, target and path
func (t *TUIRenderer) printAgentsPane(s *state.Session) {
	const maxAgents = 6

	agents := s.Agents()
	fmt.Fprintln(t.out, t.colorSubtle.Sprintf("Agents: %d", len(agents)))
	for i, a := range agents {
		if i == maxAgents {
			fmt.Fprintln(t.out, t.colorSubtle.Sprintf("  ... %d more", len(agents)-maxAgents))
			break
		}
		fmt.Fprintf(t.out, "  %s\n", t.agentLine(s, a))
	}
}

// printPossibleActions prints the available actions
func (t *TUIRenderer) printPossibleActions() {
	t.printBullet("ACTION{toggle} x y, ACTION{retarget} id x y, ACTION{?} for all commands")
}

// printMessagesPane renders the messages log pane
func (t *TUIRenderer) printMessagesPane(s *state.Session) {
	width := terminal.GetWidth()

	// Create a horizontal line spanning the terminal width
	// "Messages" label is 8 chars, plus 2 spaces = 10, so we need (width - 10) / 2 dashes on each side
	label := " Messages "
	labelLen := len(label)
	sideLen := (width - labelLen) / 2
	if sideLen < 1 {
		sideLen = 1
	}

	leftDashes := strings.Repeat("─", sideLen)
	rightDashes := strings.Repeat("─", max(width-sideLen-labelLen, 1))

	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.colorSubtle.Sprint(leftDashes+label+rightDashes))

	if len(s.Messages) == 0 {
		fmt.Fprintln(t.out, t.colorSubtle.Sprint("  (no messages)"))
	} else {
		for _, msg := range s.Messages {
			fmt.Fprintf(t.out, "  %s\n", t.FormatText("%s", msg))
		}
	}

	fmt.Fprintln(t.out, t.colorSubtle.Sprint(strings.Repeat("─", width)))
}
