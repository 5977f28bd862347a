// Package lifecycle provides the Init/Shutdown state machine shared by halport
// services that own background workers, such as the key-value store flusher.
//
// # Usage
//
//	m := lifecycle.NewManager(logger, nil)
//
//	if err := m.TransitionTo(lifecycle.StateStarting, "Init called"); err != nil {
//	    return err
//	}
//	m.Go(ctx, "flusher", s.flushLoop)
//	_ = m.TransitionTo(lifecycle.StateRunning, "ready")
//
//	// Shutdown: cancel workers, then wait for them.
//	_ = m.TransitionTo(lifecycle.StateStopping, "Shutdown called")
//	m.Cancel()
//	if err := m.WaitWithTimeout(5 * time.Second); err != nil {
//	    return err
//	}
//	_ = m.TransitionTo(lifecycle.StateStopped, "workers done")
//
// # State Machine
//
// Valid state transitions:
//   - Stopped -> Starting
//   - Starting -> Running, Stopping, Crashed
//   - Running -> Stopping, Crashed
//   - Stopping -> Stopped, Crashed
//   - Crashed -> Starting
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package lifecycle
