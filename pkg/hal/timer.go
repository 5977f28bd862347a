package hal

// TimerFunc is invoked when a timer fires. userData is the value passed to
// TimerCreate.
type TimerFunc func(userData any)

// Lifetime may be implemented by timer user data. Debug builds check Alive
// before every fire and fail loudly when the data was released while the timer
// could still fire.
type Lifetime interface {
	Alive() bool
}

// Timers is the software timer service.
//
// The timer holds a non-owning reference to userData. The caller must keep it
// valid until TimerDelete returns.
type Timers interface {
	// TimerCreate registers a stopped timer.
	TimerCreate(name string, fn TimerFunc, userData any) (Timer, error)

	// TimerStart arms a one-shot fire no earlier than periodMs from now,
	// replacing any pending fire.
	TimerStart(t Timer, periodMs int) error

	// TimerStartPeriodic arms a repeating timer. Each fire is scheduled
	// periodMs after the previous callback returned.
	TimerStartPeriodic(t Timer, periodMs int) error

	// TimerStop cancels pending fires. A callback already running completes;
	// no new one starts after TimerStop returns. Safe inside the callback.
	TimerStop(t Timer) error

	// TimerDelete stops the timer, waits for an in-flight callback and
	// releases the handle. It must not be called from the timer's own
	// callback.
	TimerDelete(t Timer) error
}
