package encio

import (
	"errors"
	"fmt"
	"runtime"
)

// Error handling in siren reuses a small set of error kinds for as many failures as possible,
// with extra information wrapped as applicable.
// All errors are grouped into two wrappers; IOError and Error.
// IOError errors indicate a bad io.Reader/io.Writer, and the caller should stop using it.
// Error errors carry one of the kinds below, along with the function that raised it.
//
// In this way, errors can be checked with
//
//	if errors.Is(err, encio.ErrVersion) {
//		// archive written by an incompatible version
//	} else if errors.Is(err, encio.ErrCorruptedData) {
//		// archive is damaged
//	}
//
// None of them are recoverable for the save or load pass that produced them.
var (
	// ErrCorruptedData is returned when the archive is malformed or inconsistent;
	// magic mismatches, missing children, type disagreements and cycles found mid-construction.
	ErrCorruptedData = errors.New("corrupted data")

	// ErrVersion is returned when an archive holds a version of a type the running code cannot read.
	ErrVersion = errors.New("version error")

	// ErrInvalidCast is returned when an object's class does not satisfy a requested cast.
	ErrInvalidCast = errors.New("invalid cast")

	// ErrNullPtr is returned when dereferencing an empty reference.
	ErrNullPtr = errors.New("null pointer")

	// ErrInvalidOperation is returned for operations that can never succeed on the given value,
	// such as instantiating an abstract class.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrProgramBug is returned when a class is registered without a factory, or the streaming API is misused.
	// It indicates a build or registration defect, never bad data.
	ErrProgramBug = errors.New("program bug")

	// ErrBadType is returned when a value is not of the type an operation requires.
	ErrBadType = errors.New("bad type")
)

// NewIOError returns an IOError wrapping err with the given message.
// err is typically the error returned from the io.Reader/io.Writer, or another error describing why the reader isn't operating correctly.
// rw is the reader or writer, and is only used for its type.
// If message is empty, it is filled with the calling function's name, skipping skip functions.
func NewIOError(err error, rw interface{}, message string, skip int) error {
	if err == nil {
		return NewError(ErrProgramBug, "NewIOError called with nil error", "encio.NewIOError")
	}
	if message == "" {
		message = "in " + GetCaller(1+skip)
	}
	if rw != nil {
		message = fmt.Sprintf("%T: %v", rw, message)
	}

	return IOError{
		Err:     err,
		Message: message,
	}
}

// IOError is returned when io errors occour.
type IOError struct {
	Err     error
	Message string
}

// Error implements error
func (e IOError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap implements errors's Unwrap()
func (e IOError) Unwrap() error {
	return e.Err
}

// NewError returns an Error wrapping err with message and caller.
// If caller is empty, it is automatically filled with the calling functions name.
func NewError(err error, message string, caller string) error {
	if caller == "" {
		caller = GetCaller(1)
	}

	return Error{
		Err:     err,
		Message: message,
		Caller:  caller,
	}
}

// Errorf is NewError with a formatted message, and the caller taken from the calling function.
func Errorf(err error, format string, args ...interface{}) error {
	return Error{
		Err:     err,
		Message: fmt.Sprintf(format, args...),
		Caller:  GetCaller(1),
	}
}

// Error is returned when an error is encountered while streaming.
type Error struct {
	Err     error
	Message string
	Caller  string
}

// Error implements error
func (e Error) Error() (str string) {
	if e.Caller != "" {
		str = e.Caller + ": "
	}

	str += e.Err.Error()

	if e.Message != "" {
		str += " (" + e.Message + ")"
	}

	return str
}

// Unwrap implements errors's Unwrap()
func (e Error) Unwrap() error {
	return e.Err
}

// GetCaller returns the name of the calling function, skipping skip functions.
// i.e. 0 writes the calling function, 1 the function calling that etc...
func GetCaller(skip int) string {
	pcs := make([]uintptr, 1)
	n := runtime.Callers(2+skip, pcs)
	if n != 1 {
		return "Unknown Function"
	}

	frames := runtime.CallersFrames(pcs)
	frame, _ := frames.Next()
	return frame.Function
}
