package input

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"siegepath/pkg/engine/world"
)

// Device represents a physical input source.
type Device int

const (
	DeviceUnknown Device = iota
	DeviceKeyboard
	DeviceMouse
	DeviceTerminal
)

// Action represents a high‑level intent in the session.
type Action int

const (
	ActionNone Action = iota

	// Structures
	ActionPlace
	ActionRemove
	ActionToggle

	// Agents
	ActionRetarget

	// Meta / UI
	ActionHelp
	ActionQuit
	ActionReset
	ActionToggleGrid
	ActionDump
	ActionScreenshot
)

// Intent is the 4th‑layer, high‑level description of what the user wants to do.
// Pos is set for actions aimed at a world position; Agent names the agent
// a retarget applies to.
type Intent struct {
	Action Action
	Pos    world.Vec2
	HasPos bool
	Agent  string
}

// RawInput is the 1st‑layer event emitted directly from an input device.
// Code is a device‑specific identifier (e.g. "KeyG", "mouse_left") or, for
// the terminal, a whole command line such as "place 130 170".
type RawInput struct {
	Device    Device
	Code      string
	Pos       world.Vec2
	HasPos    bool
	Timestamp time.Time
}

// DebouncedInput is the 2nd‑layer representation after debouncing/deduplication.
type DebouncedInput struct {
	Device Device
	Verb   string
	Args   []string
	Pos    world.Vec2
	HasPos bool
}

// NewDebouncedInput splits a raw event into its verb and arguments.
// Verbs are matched case-insensitively.
func NewDebouncedInput(raw RawInput) DebouncedInput {
	fields := strings.Fields(raw.Code)
	ev := DebouncedInput{
		Device: raw.Device,
		Pos:    raw.Pos,
		HasPos: raw.HasPos,
	}
	if len(fields) > 0 {
		ev.Verb = strings.ToLower(fields[0])
		ev.Args = fields[1:]
	}
	return ev
}

// bindings maps raw codes to actions (3rd-layer bindings).
// Multiple codes may point to the same Action.
var bindings = map[string]Action{
	// Structures
	"place":      ActionPlace,
	"p":          ActionPlace,
	"remove":     ActionRemove,
	"rm":         ActionRemove,
	"toggle":     ActionToggle,
	"t":          ActionToggle,
	"mouse_left": ActionToggle,

	// Agents
	"retarget": ActionRetarget,
	"goto":     ActionRetarget,

	// Help
	"?":    ActionHelp,
	"help": ActionHelp,

	// Quit
	"quit":   ActionQuit,
	"q":      ActionQuit,
	"escape": ActionQuit,

	// Session
	"reset": ActionReset,
	"f5":    ActionReset,
	"grid":  ActionToggleGrid,
	"g":     ActionToggleGrid,

	// Debugging
	"dump":       ActionDump,
	"f9":         ActionDump,
	"screenshot": ActionScreenshot,
	"f12":        ActionScreenshot,
}

// positional actions take an "x y" pair after the verb
var positional = map[Action]bool{
	ActionPlace:    true,
	ActionRemove:   true,
	ActionToggle:   true,
	ActionRetarget: true,
}

// MapToIntent is the 3rd+4th layer: it applies the current bindings to a
// debounced input and returns a high‑level Intent. Positional actions
// without a usable position map to ActionNone.
func MapToIntent(ev DebouncedInput) Intent {
	act, ok := bindings[ev.Verb]
	if !ok {
		return Intent{Action: ActionNone}
	}
	intent := Intent{Action: act, Pos: ev.Pos, HasPos: ev.HasPos}

	args := ev.Args
	if act == ActionRetarget {
		if len(args) == 0 {
			return Intent{Action: ActionNone}
		}
		intent.Agent, args = args[0], args[1:]
	}
	if !positional[act] || intent.HasPos {
		return intent
	}

	pos, ok := parsePos(args)
	if !ok {
		return Intent{Action: ActionNone}
	}
	intent.Pos, intent.HasPos = pos, true
	return intent
}

func parsePos(args []string) (world.Vec2, bool) {
	if len(args) != 2 {
		return world.Vec2{}, false
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return world.Vec2{}, false
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return world.Vec2{}, false
	}
	return world.Vec2{X: x, Y: y}, true
}

// ActionName returns a human-friendly name for an action.
func ActionName(a Action) string {
	switch a {
	case ActionPlace:
		return "Place Structure"
	case ActionRemove:
		return "Remove Structure"
	case ActionToggle:
		return "Toggle Structure"
	case ActionRetarget:
		return "Retarget Agent"
	case ActionHelp:
		return "Help"
	case ActionQuit:
		return "Quit"
	case ActionReset:
		return "Reset Session"
	case ActionToggleGrid:
		return "Toggle Grid"
	case ActionDump:
		return "Dump Map"
	case ActionScreenshot:
		return "Screenshot"
	default:
		return "None"
	}
}

// GetBindingsByAction returns the current bindings grouped by action.
func GetBindingsByAction() map[Action][]string {
	result := make(map[Action][]string)
	for code, act := range bindings {
		result[act] = append(result[act], code)
	}
	// Ensure stable ordering of codes within each action so help text doesn't shuffle.
	for act, codes := range result {
		sort.Strings(codes)
		result[act] = codes
	}
	return result
}

// SetSingleBinding replaces all bindings for the given action with a single code.
// The mouse binding is reserved and always kept.
func SetSingleBinding(action Action, code string) {
	for c, a := range bindings {
		if c == "mouse_left" {
			continue
		}
		if a == action {
			delete(bindings, c)
		}
	}
	if code != "" && code != "mouse_left" {
		bindings[strings.ToLower(code)] = action
	}
}
