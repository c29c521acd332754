package world

import "sync"

// CellEvent identifies a walkability change raised by the Grid
type CellEvent int

// Cell events
const (
	// CellBlocked is raised when a cell turns unwalkable
	CellBlocked CellEvent = iota
	// CellCleared is raised when a cell turns walkable
	CellCleared
)

// String returns the string representation of a cell event
func (e CellEvent) String() string {
	switch e {
	case CellBlocked:
		return "CellBlocked"
	case CellCleared:
		return "CellCleared"
	default:
		return "Unknown"
	}
}

// Listener receives cell events from a Grid.
// OnCellEvent runs synchronously on the goroutine that changed the grid,
// so implementations must not block.
type Listener interface {
	OnCellEvent(event CellEvent, cell *Cell)
}

// ListenerFunc adapts a plain function to the Listener interface
type ListenerFunc func(event CellEvent, cell *Cell)

// OnCellEvent calls f(event, cell)
func (f ListenerFunc) OnCellEvent(event CellEvent, cell *Cell) {
	f(event, cell)
}

// Subscription identifies one registered listener; pass it to Unsubscribe
type Subscription struct {
	event CellEvent
	id    uint64
}

// Event returns the event the subscription listens to
func (s Subscription) Event() CellEvent {
	return s.event
}

type subscriber struct {
	id       uint64
	listener Listener
}

// observers is the Grid-owned listener registry.
// Dispatch iterates a snapshot so listeners may unsubscribe from inside a callback.
type observers struct {
	mu     sync.RWMutex
	nextID uint64
	byType map[CellEvent][]subscriber
}

func newObservers() *observers {
	return &observers{byType: make(map[CellEvent][]subscriber)}
}

func (o *observers) subscribe(event CellEvent, l Listener) Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.nextID++
	o.byType[event] = append(o.byType[event], subscriber{id: o.nextID, listener: l})
	return Subscription{event: event, id: o.nextID}
}

func (o *observers) unsubscribe(s Subscription) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	subs := o.byType[s.event]
	for i, sub := range subs {
		if sub.id != s.id {
			continue
		}
		// Copy instead of shifting in place; a dispatch may be iterating the old slice
		next := make([]subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		o.byType[s.event] = next
		return true
	}
	return false
}

func (o *observers) count(event CellEvent) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.byType[event])
}

func (o *observers) notify(event CellEvent, cell *Cell) {
	o.mu.RLock()
	subs := o.byType[event]
	o.mu.RUnlock()

	for _, sub := range subs {
		sub.listener.OnCellEvent(event, cell)
	}
}
