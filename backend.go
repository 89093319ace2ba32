package rawterm

import "time"

// pollSlice caps a single backend wait so out-of-band notifications and the
// decoder deadline are observed promptly
const pollSlice = 100 * time.Millisecond

// Backend is the narrow per-platform console surface a Session builds on.
// Exactly one implementation is compiled per target.
type Backend interface {
	// IsTerminal reports whether the input handle is an interactive terminal.
	IsTerminal() bool

	// EnterRaw switches the input handle to raw mode and returns the prior
	// state. Ownership of the snapshot stays with the caller.
	EnterRaw() (*termState, error)

	// LeaveRaw restores a state previously captured by EnterRaw, verbatim.
	LeaveRaw(st *termState) error

	// ReadInput waits up to timeout for input. Byte-stream backends fill buf
	// and return n > 0; record backends return translated events in arrival
	// order instead. wouldBlock reports an elapsed timeout with nothing to
	// read. timeout < 0 waits indefinitely.
	ReadInput(buf []byte, timeout time.Duration) (n int, events []Event, wouldBlock bool, err error)

	// Size returns the terminal dimensions in character cells.
	Size() (width, height int, err error)

	// PollNotification returns a pending out-of-band event (Unix resize)
	// without blocking.
	PollNotification() (Event, bool)

	// WriteControl writes a control sequence to the output handle.
	WriteControl(seq []byte) error

	// Close releases backend resources. It does not touch terminal state.
	Close() error
}
