// @focus: #sys { term }
package rawterm

import "github.com/lestrrat-go/pdebug"

// RawMode owns the saved terminal state across a raw-mode span
type RawMode struct {
	backend Backend
	saved   *termState
}

// NewRawMode creates a guard over the given backend
func NewRawMode(b Backend) *RawMode {
	return &RawMode{backend: b}
}

// Enable switches the terminal to raw mode. The snapshot is taken only when
// no state is held, so repeated calls cannot capture an already-raw
// configuration.
func (r *RawMode) Enable() error {
	if pdebug.Enabled {
		g := pdebug.Marker("RawMode.Enable")
		defer g.End()
	}
	if r.saved != nil {
		return nil
	}
	if !r.backend.IsTerminal() {
		return ErrNotTerminal
	}
	st, err := r.backend.EnterRaw()
	if err != nil {
		return err
	}
	r.saved = st
	return nil
}

// Disable restores the attributes captured by Enable, verbatim, and clears
// the snapshot. When the restore itself fails the terminal is nudged back
// toward a usable state with a reset sequence before the error is returned.
func (r *RawMode) Disable() error {
	if pdebug.Enabled {
		g := pdebug.Marker("RawMode.Disable")
		defer g.End()
	}
	if r.saved == nil {
		return nil
	}
	st := r.saved
	r.saved = nil
	if err := r.backend.LeaveRaw(st); err != nil {
		r.backend.WriteControl(seqReset)
		resetTerminalMode()
		return err
	}
	return nil
}

// IsRaw reports whether the guard currently holds a snapshot
func (r *RawMode) IsRaw() bool {
	return r.saved != nil
}
