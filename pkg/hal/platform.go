package hal

// Platform is the complete contract a backend provides.
type Platform interface {
	Sync
	Threads
	Timers
	KV
	Memory
	Clock
	Formatter
	Network
}
