package lifecycle

import "time"

// State is where a halport service (the platform or its key-value store) is
// between Init and Shutdown. Operations are accepted only in StateRunning.
type State int

const (
	// StateStopped: never initialized, or shut down cleanly. Init may run.
	StateStopped State = iota
	// StateStarting: Init is loading records and starting workers.
	StateStarting
	// StateRunning: Init succeeded; HAL operations are served.
	StateRunning
	// StateStopping: Shutdown cancelled the workers and is flushing.
	StateStopping
	// StateCrashed: Init failed part way. Init may be retried.
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// EventEmitter observes transitions, for example to export the current
// state of each service as a metric. It is called outside the manager lock.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Manager is the state machine a service drives from Init and Shutdown.
type Manager interface {
	State() State

	// Ready reports whether operations may be served.
	Ready() bool

	// TransitionTo moves to newState, or fails with ErrNotRunning or
	// ErrAlreadyRunning when the move is not allowed from the current state.
	TransitionTo(newState State, reason string) error

	// WaitWithTimeout waits for the service's workers, returning
	// ErrShutdownTimeout if they are still running after timeout.
	WaitWithTimeout(timeout time.Duration) error
}
