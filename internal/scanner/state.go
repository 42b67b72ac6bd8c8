package scanner

// State is the position of a ScanSession in its state machine.
type State int

const (
	// StatePreamble discards lines until the start marker.
	StatePreamble State = iota

	// StateScanning classifies body lines.
	StateScanning

	// StateInEnvironment discards lines until the open environment closes.
	StateInEnvironment

	// StateDone is terminal: the end marker was reached.
	StateDone

	// StateFailed is terminal: the scan was aborted.
	StateFailed
)

// String returns the state name used in logs and errors.
func (s State) String() string {
	switch s {
	case StatePreamble:
		return "preamble"
	case StateScanning:
		return "scanning"
	case StateInEnvironment:
		return "in_environment"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
