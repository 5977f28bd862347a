package hal

import "errors"

// Code is a stable error class. It is comparable and implements error, so a
// bare Code can be returned or matched with errors.Is.
type Code string

func (c Code) Error() string { return string(c) }

// Error taxonomy.
const (
	OK                Code = "ok"
	AllocationFailure Code = "allocation_failure"
	Timeout           Code = "timeout"
	InvalidArgument   Code = "invalid_argument"
	Unsupported       Code = "unsupported"
	Fatal             Code = "fatal"
	Failure           Code = "failure"
)

// Error adds an operation and message to a Code while keeping an optional cause.
type Error struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is e's Code, so errors.Is(err, hal.Timeout) works
// for wrapped errors. An *Error target without an Op matches any error with the
// same code and message, which lets backends attach their Op to a sentinel.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Code:
		return t == e.C
	case *Error:
		return t.C == e.C && t.Msg == e.Msg && (t.Op == "" || t.Op == e.Op)
	}
	return false
}

// WithOp returns a copy of e attributed to op.
func (e *Error) WithOp(op string) *Error {
	c := *e
	c.Op = op
	return &c
}

// Code returns the error class.
func (e *Error) Code() Code { return e.C }

// Sentinels. The InvalidArgument subclasses stay distinguishable from one
// another while still matching InvalidArgument.
var (
	ErrAllocation      error = AllocationFailure
	ErrTimeout         error = Timeout
	ErrInvalidArgument error = InvalidArgument
	ErrUnsupported     error = Unsupported

	ErrInvalidHandle  = &Error{C: InvalidArgument, Msg: "invalid or destroyed handle"}
	ErrNotFound       = &Error{C: InvalidArgument, Msg: "key not found"}
	ErrBufferTooSmall = &Error{C: InvalidArgument, Msg: "buffer too small"}
	ErrNotReady       = &Error{C: Failure, Msg: "not initialized"}
)

// Errorf builds an *Error for op. Backends use it to keep the code stable while
// attaching a cause.
func Errorf(c Code, op, msg string, cause error) error {
	return &Error{C: c, Op: op, Msg: msg, Err: cause}
}

// CodeOf extracts the Code from err. nil maps to OK and unclassified errors to
// Failure.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	type coder interface{ Code() Code }
	var x coder
	if errors.As(err, &x) {
		return x.Code()
	}
	return Failure
}

// Integer results of the C-level convention.
const (
	RetSuccess        = 0
	RetFailure        = -1
	RetBufferTooSmall = -2
	RetNotFound       = -3
)

// ReturnCode maps err to the C-level convention: 0 on success, -1 for any
// failure including timeouts, and the distinct KV results for a short buffer or
// a missing key.
func ReturnCode(err error) int {
	switch {
	case err == nil:
		return RetSuccess
	case errors.Is(err, ErrBufferTooSmall):
		return RetBufferTooSmall
	case errors.Is(err, ErrNotFound):
		return RetNotFound
	default:
		return RetFailure
	}
}
