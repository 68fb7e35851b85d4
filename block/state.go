package block

// State is the proof-of-work lifecycle of a block. Transitions are one-way:
// Initializing moves to exactly one of Ready or Aborted, both terminal.
type State int32

const (
	StateInitializing State = iota
	StateReady
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "INITIALIZING"
	case StateReady:
		return "READY"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}
