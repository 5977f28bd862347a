// Package posix is the reference HAL backend for hosted operating systems.
//
// It implements every facade of hal.Platform on top of goroutines, channels,
// runtime timers and the host filesystem:
//
//   - mutexes and semaphores are channel based and generation-checked
//   - threads are goroutines; a non-normal priority pins the goroutine to an
//     OS thread and applies a nice value on Linux
//   - timers are runtime timers with a re-armed periodic mode
//   - the key-value store is a kvstore.Store on a directory of record files
//   - network introspection reads interfaces through gopsutil
//
// # Usage
//
//	p, err := posix.New(posix.DefaultConfig(), posix.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := p.Init(ctx); err != nil {
//	    return err
//	}
//	defer p.Shutdown(context.Background())
//
// # Threads
//
// Goroutines cannot be killed from outside. ThreadDelete on another thread
// cancels the context passed to its ThreadFunc and waits
// Config.ThreadDeleteGrace for the body to return; if it does not, the call
// reports hal.Fatal and the body keeps running until it next checks ctx.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package posix
