package hal

// Clock provides uptime, sleeping, the settable UTC clock and the PRNG.
type Clock interface {
	// UptimeMs is monotonic milliseconds since boot, unaffected by UTCSet.
	UptimeMs() uint64

	// SleepMs suspends the caller.
	SleepMs(ms uint32)

	// UTCSet sets wall-clock time in milliseconds since the Unix epoch.
	UTCSet(ms int64)

	// UTCGet returns wall-clock time in milliseconds since the Unix epoch.
	UTCGet() int64

	// TimeStr formats the wall clock for diagnostics.
	TimeStr() string

	// Srandom seeds the PRNG.
	Srandom(seed uint32)

	// Random returns a value in [0, region). Random(0) returns 0.
	Random(region uint32) uint32
}

// Formatter is the formatted output facade. Formats follow package fmt.
type Formatter interface {
	// Printf writes to the platform console.
	Printf(format string, args ...any)

	// Snprintf formats into buf, writing at most len(buf)-1 bytes followed by
	// a NUL, and returns the length the full output would have had.
	Snprintf(buf []byte, format string, args ...any) int

	// Vsnprintf is Snprintf with an explicit argument list.
	Vsnprintf(buf []byte, format string, args []any) int
}
