package breaker

import "fmt"

// Overload gate limits. A snapshot exceeding any one of them rejects the call
// before the state machine is consulted.
const (
	MaxCurrentLoad     = 7.0
	MaxContextSwitches = 3
	MaxErrorCount      = 5
)

// LoadSnapshot carries the caller's ambient load signals for one call. It is
// input-only and never retained: the caller rebuilds it fresh per call from
// whatever session state it tracks.
type LoadSnapshot struct {
	CurrentLoad     float64 `json:"current_load"`
	ContextSwitches int     `json:"context_switches"`
	ErrorCount      int     `json:"error_count"`
}

// check applies the overload gate. The returned error wraps ErrOverloaded and
// names the limit that tripped.
func (s LoadSnapshot) check() error {
	switch {
	case s.CurrentLoad > MaxCurrentLoad:
		return fmt.Errorf("%w: current load %.2f exceeds %.0f", ErrOverloaded, s.CurrentLoad, MaxCurrentLoad)
	case s.ContextSwitches > MaxContextSwitches:
		return fmt.Errorf("%w: %d context switches exceed %d", ErrOverloaded, s.ContextSwitches, MaxContextSwitches)
	case s.ErrorCount > MaxErrorCount:
		return fmt.Errorf("%w: %d recent errors exceed %d", ErrOverloaded, s.ErrorCount, MaxErrorCount)
	default:
		return nil
	}
}
