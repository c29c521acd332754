// Package ebiten provides an Ebiten-based 2D graphical renderer for siegepath.
package ebiten

import (
	"time"

	"siegepath/pkg/engine/world"
	"siegepath/pkg/game/state"
)

// RenderFrame captures a snapshot of s for the next Draw call
func (e *EbitenRenderer) RenderFrame(s *state.Session) {
	e.snapshotMutex.Lock()
	defer e.snapshotMutex.Unlock()

	if s == nil || s.Grid == nil {
		e.snapshot.valid = false
		return
	}

	g := s.Grid
	snap := &e.snapshot
	snap.valid = true
	snap.name = s.Scenario.Name
	snap.ticks = s.Ticks
	snap.elapsed = s.Elapsed
	snap.gridCols = g.Cols()
	snap.gridRows = g.Rows()
	snap.cellWidth = g.CellWidth()
	snap.extent = g.Extent()
	snap.structures = s.Placer.Count()
	snap.blocked = s.Grid.BlockedCount()
	snap.showGrid = s.ShowGrid

	if len(snap.cells) != g.Len() {
		snap.cells = make([]cellKind, g.Len())
	}
	g.ForEachCell(func(x, y int, c *world.Cell) {
		kind := cellFloor
		switch {
		case s.Placer.Occupies(c):
			kind = cellStructure
		case !c.Walkable():
			kind = cellBlocked
		}
		snap.cells[y*snap.gridCols+x] = kind
	})

	snap.agents = snap.agents[:0]
	for _, a := range s.Agents() {
		path := a.Remaining()
		snap.agents = append(snap.agents, agentSnapshot{
			id:       a.ID(),
			position: a.Position(),
			target:   a.Target(),
			path:     path,
			arrived:  a.HasArrived(),
			stuck:    path == nil && a.Searches() > 0 && a.Failures() > 0,
		})
	}

	snap.messages = e.trackMessages(s.Messages)
}

// trackMessages adds session messages not seen yet, drops expired ones and
// returns the messages still showing
func (e *EbitenRenderer) trackMessages(messages []string) []messageEntry {
	e.messagesMutex.Lock()
	defer e.messagesMutex.Unlock()

	now := time.Now().UnixMilli()

	current := make(map[string]bool, len(messages))
	for _, msg := range messages {
		current[msg] = true
	}

	// Expired messages stay tracked while the session still lists them so
	// they do not come back as new
	updated := make([]messageEntry, 0, len(e.trackedMessages)+len(messages))
	tracked := make(map[string]bool, len(e.trackedMessages))
	for _, m := range e.trackedMessages {
		if now-m.Timestamp < messageLifetime || current[m.Text] {
			updated = append(updated, m)
			tracked[m.Text] = true
		}
	}

	// Add new messages that aren't already tracked
	for _, msg := range messages {
		if !tracked[msg] {
			updated = append(updated, messageEntry{Text: msg, Timestamp: now})
			tracked[msg] = true
		}
	}
	e.trackedMessages = updated

	visible := make([]messageEntry, 0, len(updated))
	for _, m := range updated {
		if now-m.Timestamp < messageLifetime {
			visible = append(visible, m)
		}
	}
	return visible
}
