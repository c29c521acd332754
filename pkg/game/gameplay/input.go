// Package gameplay applies user commands to a running session.
package gameplay

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/leonelquinteros/gotext"

	engineinput "siegepath/pkg/engine/input"
	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/devtools"
	"siegepath/pkg/game/placement"
	"siegepath/pkg/game/renderer"
	"siegepath/pkg/game/state"
)

// helpOrder is the order commands are listed in by the help action
var helpOrder = []engineinput.Action{
	engineinput.ActionPlace,
	engineinput.ActionRemove,
	engineinput.ActionToggle,
	engineinput.ActionRetarget,
	engineinput.ActionReset,
	engineinput.ActionToggleGrid,
	engineinput.ActionDump,
	engineinput.ActionScreenshot,
	engineinput.ActionQuit,
}

// DumpFile is where the dump action writes the map
var DumpFile = "map.txt"

// ProcessIntent handles a high-level input intent from the tiered input
// system. It reports whether the user asked to quit.
func ProcessIntent(s *state.Session, intent engineinput.Intent) bool {
	switch intent.Action {
	case engineinput.ActionNone:
		logMessage(s, "%s", gotext.Get("UNKNOWN_COMMAND"))
		return false

	case engineinput.ActionQuit:
		return true

	case engineinput.ActionHelp:
		logMessage(s, "%s %s", gotext.Get("COMMANDS"), helpText())
		return false

	case engineinput.ActionPlace:
		st, err := s.Placer.Place(intent.Pos)
		if err != nil {
			placementFailed(s, intent.Pos, err)
			return false
		}
		cell := s.Grid.CellAt(st.Position)
		logMessage(s, "%s", fmt.Sprintf(gotext.Get("STRUCTURE_PLACED"), cell.GridX(), cell.GridY()))
		return false

	case engineinput.ActionRemove:
		cell := s.Grid.CellAt(intent.Pos)
		if err := s.Placer.Remove(intent.Pos); err != nil {
			placementFailed(s, intent.Pos, err)
			return false
		}
		logMessage(s, "%s", fmt.Sprintf(gotext.Get("STRUCTURE_REMOVED"), cell.GridX(), cell.GridY()))
		return false

	case engineinput.ActionToggle:
		if err := s.ToggleStructure(intent.Pos); err != nil {
			placementFailed(s, intent.Pos, err)
		}
		return false

	case engineinput.ActionRetarget:
		a, ok := s.Coordinator.Agent(intent.Agent)
		if !ok {
			logMessage(s, "%s", fmt.Sprintf(gotext.Get("UNKNOWN_AGENT"), intent.Agent))
			return false
		}
		a.SetTarget(intent.Pos)
		cell := s.Grid.CellAt(intent.Pos)
		logMessage(s, "%s", fmt.Sprintf(gotext.Get("AGENT_RETARGETED"), a.ID(), cell.GridX(), cell.GridY()))
		return false

	case engineinput.ActionReset:
		if err := s.Reset(); err != nil {
			log.Printf("Reset failed: %v", err)
			logMessage(s, "DENIED{%s}", err.Error())
		}
		return false

	case engineinput.ActionToggleGrid:
		s.ShowGrid = !s.ShowGrid
		return false

	case engineinput.ActionDump:
		path, err := devtools.DumpMapToFile(s, DumpFile)
		if err != nil {
			logMessage(s, "%s", fmt.Sprintf(gotext.Get("MAP_DUMP_FAILED"), err))
		} else {
			logMessage(s, "%s", fmt.Sprintf(gotext.Get("MAP_DUMPED"), path))
		}
		return false

	case engineinput.ActionScreenshot:
		path, err := devtools.SaveScreenshotHTML(s)
		if err != nil {
			logMessage(s, "%s", fmt.Sprintf(gotext.Get("SCREENSHOT_FAILED"), err))
		} else {
			logMessage(s, "%s", fmt.Sprintf(gotext.Get("SCREENSHOT_SAVED"), path))
		}
		return false
	}

	logMessage(s, "%s", gotext.Get("UNKNOWN_COMMAND"))
	return false
}

// placementFailed explains why a structure could not be placed or removed
func placementFailed(s *state.Session, pos world.Vec2, err error) {
	cell := s.Grid.CellAt(pos)
	switch {
	case errors.Is(err, placement.ErrOccupied):
		logMessage(s, "DENIED{%s}", fmt.Sprintf(gotext.Get("CELL_OCCUPIED"), cell.GridX(), cell.GridY()))
	case errors.Is(err, placement.ErrNotPlaced):
		logMessage(s, "DENIED{%s}", fmt.Sprintf(gotext.Get("NO_STRUCTURE"), cell.GridX(), cell.GridY()))
	default:
		logMessage(s, "DENIED{%s}", err.Error())
	}
}

// helpText lists every command with all of its bindings
func helpText() string {
	bindings := engineinput.GetBindingsByAction()
	parts := make([]string, 0, len(helpOrder))
	for _, act := range helpOrder {
		codes := bindings[act]
		if len(codes) == 0 {
			continue
		}
		verb := strings.Join(codes, "/")
		switch act {
		case engineinput.ActionRetarget:
			verb += " id x y"
		case engineinput.ActionPlace, engineinput.ActionRemove, engineinput.ActionToggle:
			verb += " x y"
		}
		parts = append(parts, verb)
	}
	return strings.Join(parts, ", ")
}

// logMessage adds a formatted message to the session's message log
func logMessage(s *state.Session, msg string, a ...any) {
	formatted := renderer.ApplyMarkup(msg, a...)
	s.AddMessage(formatted)
}
