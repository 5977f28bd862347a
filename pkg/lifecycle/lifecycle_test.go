package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type mockEmitter struct {
	mu     sync.Mutex
	events []stateChangeEvent
}

type stateChangeEvent struct {
	previous State
	current  State
	reason   string
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, stateChangeEvent{previous, current, reason})
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestManager_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"stopped to starting", StateStopped, StateStarting, nil},
		{"starting to running", StateStarting, StateRunning, nil},
		{"starting to stopping", StateStarting, StateStopping, nil},
		{"running to stopping", StateRunning, StateStopping, nil},
		{"stopping to stopped", StateStopping, StateStopped, nil},
		{"crashed to starting", StateCrashed, StateStarting, nil},
		{"stopped to running", StateStopped, StateRunning, ErrNotRunning},
		{"running to starting", StateRunning, StateStarting, ErrAlreadyRunning},
		{"stopping to running", StateStopping, StateRunning, ErrAlreadyRunning},
		{"crashed to running", StateCrashed, StateRunning, ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager(nil, nil)
			m.state = tt.from

			err := m.TransitionTo(tt.to, "test")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && m.State() != tt.to {
				t.Errorf("state = %v, want %v", m.State(), tt.to)
			}
		})
	}
}

func TestManager_EmitsEvents(t *testing.T) {
	em := &mockEmitter{}
	m := NewManager(nil, em)

	_ = m.TransitionTo(StateStarting, "init")
	_ = m.TransitionTo(StateRunning, "ready")

	if len(em.events) != 2 {
		t.Fatalf("events = %d, want 2", len(em.events))
	}
	if em.events[1].previous != StateStarting || em.events[1].current != StateRunning || em.events[1].reason != "ready" {
		t.Errorf("event = %+v", em.events[1])
	}
	if !m.Ready() {
		t.Error("Ready() = false in StateRunning")
	}
}

func TestManager_WorkersAndCancel(t *testing.T) {
	m := NewManager(nil, nil)
	ctx := m.WorkerContext(context.Background())

	for i := 0; i < 3; i++ {
		m.Go(ctx, "w", func(ctx context.Context) { <-ctx.Done() })
	}

	if err := m.WaitWithTimeout(20 * time.Millisecond); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("WaitWithTimeout before cancel = %v, want ErrShutdownTimeout", err)
	}

	m.Cancel()
	if err := m.WaitWithTimeout(time.Second); err != nil {
		t.Fatalf("WaitWithTimeout after cancel = %v", err)
	}
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 400*time.Millisecond)

	for i, base := range []time.Duration{100, 200, 400, 400} {
		base *= time.Millisecond
		d := b.Next()
		lo, hi := base*8/10, base*12/10
		if d < lo || d > hi {
			t.Errorf("attempt %d: delay %v outside [%v, %v]", i, d, lo, hi)
		}
	}

	b.Reset()
	if b.Current() != 100*time.Millisecond {
		t.Errorf("Current after Reset = %v", b.Current())
	}
}

func TestManager_SetEventEmitter(t *testing.T) {
	m := NewManager(nil, nil)
	_ = m.TransitionTo(StateStarting, "init")

	em := &mockEmitter{}
	m.SetEventEmitter(em)
	_ = m.TransitionTo(StateCrashed, "load failed")

	em.mu.Lock()
	defer em.mu.Unlock()
	if len(em.events) != 1 {
		t.Fatalf("events = %d, want 1", len(em.events))
	}
	if em.events[0].previous != StateStarting || em.events[0].current != StateCrashed {
		t.Errorf("event = %+v", em.events[0])
	}
}
