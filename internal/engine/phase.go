package engine

import (
	"encoding/json"
	"fmt"
)

// Phase is the lifecycle state of one fetch: the collection fetch as a whole,
// or one key's detail fetch.
//
//nolint:recvcheck // UnmarshalJSON requires pointer receiver; String/MarshalJSON use value receivers.
type Phase int

const (
	// PhaseIdle means no fetch has been attempted yet.
	PhaseIdle Phase = iota
	// PhaseLoading means a fetch is in flight.
	PhaseLoading
	// PhaseError means the last fetch failed; a retry may be issued.
	PhaseError
	// PhaseDone means the last fetch succeeded and its payload is held.
	PhaseDone
)

// String returns the human-readable label for a Phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("unknown(%d)", int(p))
	}
}

// MarshalJSON implements json.Marshaler to output Phase as a string.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON implements json.Unmarshaler to parse Phase from a string.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("parsing phase: %w", err)
	}
	switch str {
	case "idle":
		*p = PhaseIdle
	case "loading":
		*p = PhaseLoading
	case "error":
		*p = PhaseError
	case "done":
		*p = PhaseDone
	default:
		return fmt.Errorf("unknown phase: %q", str)
	}
	return nil
}
