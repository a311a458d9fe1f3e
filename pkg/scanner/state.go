package scanner

// State is the coordinator's pipeline state.
type State int

const (
	// StateReady is idle: a result is on display, or nothing was
	// requested yet.
	StateReady State = iota
	// StateDecoding means a frame has been requested or is being decoded.
	StateDecoding
	// StateTerminated is final.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateDecoding:
		return "decoding"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
