// Package runner drives the transition controller from a host's telemetry.
package runner

// State represents the runner state.
type State int

const (
	StateStopped State = iota // Not started or already stopped
	StateIdle                 // Started, AutoDJ disabled
	StateRunning              // AutoDJ enabled, ticker running
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}
