package hal

import (
	"context"
	"fmt"
)

// Priority is a scheduling class from idle to realtime.
type Priority int

const (
	PriorityIdle        Priority = -3
	PriorityLow         Priority = -2
	PriorityBelowNormal Priority = -1
	PriorityNormal      Priority = 0
	PriorityAboveNormal Priority = 1
	PriorityHigh        Priority = 2
	PriorityRealtime    Priority = 3

	// PriorityError is reported when the priority cannot be determined or is
	// illegal. It is never accepted as input.
	PriorityError Priority = 0x84
)

// Valid reports whether p is one of the schedulable classes.
func (p Priority) Valid() bool {
	return p >= PriorityIdle && p <= PriorityRealtime
}

func (p Priority) String() string {
	switch p {
	case PriorityIdle:
		return "idle"
	case PriorityLow:
		return "low"
	case PriorityBelowNormal:
		return "below_normal"
	case PriorityNormal:
		return "normal"
	case PriorityAboveNormal:
		return "above_normal"
	case PriorityHigh:
		return "high"
	case PriorityRealtime:
		return "realtime"
	case PriorityError:
		return "error"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ThreadParams configures ThreadCreate. A nil *ThreadParams selects all
// defaults.
type ThreadParams struct {
	// Priority is the initial scheduling class.
	Priority Priority

	// Stack is a caller-allocated stack buffer, or nil for the platform
	// default. Backends that cannot run on a foreign stack report that via
	// the stackUsed result of ThreadCreate.
	Stack []byte

	// StackSize in bytes; zero is the platform default.
	StackSize int

	// Detached starts the thread detached: its resources are reclaimed on
	// exit and it cannot be joined.
	Detached bool

	// Name is a diagnostic label.
	Name string
}

// ThreadFunc is the body of a thread. ctx is cancelled when the thread is
// deleted by another thread; long-running bodies must check it at their
// cancellation points. CurrentThread(ctx) returns the thread's own handle.
type ThreadFunc func(ctx context.Context, arg any)

// Threads manages native execution units.
type Threads interface {
	// ThreadCreate starts fn(arg). stackUsed reports whether params.Stack was
	// consumed.
	ThreadCreate(fn ThreadFunc, arg any, params *ThreadParams) (t Thread, stackUsed bool, err error)

	// ThreadDetach makes a joinable thread detached. A thread that already
	// exited is reclaimed immediately.
	ThreadDetach(t Thread) error

	// ThreadJoin waits for a joinable thread to exit and reclaims it.
	ThreadJoin(t Thread) error

	// ThreadDelete terminates a thread. ThreadSelf terminates the calling
	// thread, identified through ctx, and does not return. Deleting another
	// thread is best effort: backends that cannot kill preemptively signal
	// cancellation and report Fatal when the thread does not stop in time.
	ThreadDelete(ctx context.Context, t Thread) error
}

type threadKey struct{}

// WithThread returns a context carrying t as the current thread. Backends call
// it when starting a ThreadFunc.
func WithThread(ctx context.Context, t Thread) context.Context {
	return context.WithValue(ctx, threadKey{}, t)
}

// CurrentThread returns the thread handle carried by ctx.
func CurrentThread(ctx context.Context) (Thread, bool) {
	if ctx == nil {
		return 0, false
	}
	t, ok := ctx.Value(threadKey{}).(Thread)
	return t, ok && t != 0
}
