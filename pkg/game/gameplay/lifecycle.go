package gameplay

import (
	"errors"
	"log"

	"siegepath/pkg/game/devtools"
	"siegepath/pkg/game/scenario"
	"siegepath/pkg/game/state"
)

// LoadScenario returns the scenario a session should start from: the
// developer scenario when dev is set, the file at path when there is one,
// otherwise the built-in default.
func LoadScenario(path string, dev bool) (*scenario.Scenario, error) {
	switch {
	case dev:
		return devtools.DevScenario(), nil
	case path == "":
		return scenario.Default(), nil
	default:
		return scenario.Load(path)
	}
}

// BuildSession loads a scenario and starts a session for it
func BuildSession(path string, dev bool) (*state.Session, error) {
	scn, err := LoadScenario(path, dev)
	if err != nil {
		return nil, err
	}
	return state.NewSession(scn)
}

// DrainReloads applies every scenario the watcher has parsed since the last
// call and logs its errors, without blocking. A nil watcher does nothing.
// It reports how many scenarios were applied.
func DrainReloads(s *state.Session, w *scenario.Watcher) int {
	if w == nil {
		return 0
	}

	applied := 0
	for {
		select {
		case scn, ok := <-w.Updates:
			if !ok {
				return applied
			}
			if err := s.Apply(scn); err != nil {
				log.Printf("Cannot apply scenario %s: %v", scn.Name, err)
				if errors.Is(err, state.ErrWorldChanged) {
					logMessage(s, "DENIED{%s}", err.Error())
					continue
				}
			}
			applied++
		case err, ok := <-w.Errors:
			if !ok {
				return applied
			}
			log.Printf("Scenario reload failed: %v", err)
			logMessage(s, "DENIED{%s}", err.Error())
		default:
			return applied
		}
	}
}
