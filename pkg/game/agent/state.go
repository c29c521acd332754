package agent

// State is the path lifecycle of an agent
type State int32

// Agent states
const (
	// Idle means the agent is following its cached path, or has none
	Idle State = iota
	// Requesting means a recompute was picked up and is waiting for the search lock
	Requesting
	// Computing means a search for this agent is running under the search lock
	Computing
)

// String returns the string representation of a state
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Requesting:
		return "Requesting"
	case Computing:
		return "Computing"
	default:
		return "Unknown"
	}
}
