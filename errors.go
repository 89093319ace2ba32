package rawterm

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotTerminal is returned when the input handle is not an interactive terminal
var ErrNotTerminal = errors.New("rawterm: input is not a terminal")

// PlatformError wraps a failed OS call with the name of the call site.
// On Unix the wrapped error is the errno; errors.Is/As reach it.
type PlatformError struct {
	Call string // e.g. "tcsetattr", "SetConsoleMode"
	Err  error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("rawterm: %s: %v", e.Call, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

func platformErr(call string, err error) error {
	if err == nil {
		return nil
	}
	return &PlatformError{Call: call, Err: err}
}
