// @focus: #sys { term } #input { events }
package rawterm

import (
	"time"

	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
)

// Session ties the backend, the raw mode guard and the decoder into a
// pull-based event surface. All methods are intended for a single
// goroutine; nothing here locks.
type Session struct {
	backend Backend
	raw     *RawMode
	dec     *Decoder
	opts    Options

	buf    []byte
	queue  []Event
	closed bool
}

// NewSession puts the terminal into raw mode and prepares event delivery.
// The caller must Close the session to restore the terminal.
func NewSession(opts Options) (*Session, error) {
	if opts.Input == nil {
		opts.Input = DefaultOptions().Input
	}
	if opts.Output == nil {
		opts.Output = DefaultOptions().Output
	}
	b := newBackend(opts.Input, opts.Output, opts.RetryOnInterrupt)
	return newSession(b, opts)
}

// newSession is the backend-injectable core of NewSession
func newSession(b Backend, opts Options) (*Session, error) {
	if pdebug.Enabled {
		g := pdebug.Marker("rawterm.newSession")
		defer g.End()
	}
	s := &Session{
		backend: b,
		raw:     NewRawMode(b),
		dec:     NewDecoder(opts.EscapeTimeout),
		opts:    opts,
		buf:     make([]byte, 256),
	}
	if err := s.raw.Enable(); err != nil {
		b.Close()
		return nil, err
	}
	if err := s.pushModes(); err != nil {
		s.raw.Disable()
		b.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) pushModes() error {
	if s.opts.BracketedPaste {
		if err := s.backend.WriteControl(csiPasteOn); err != nil {
			return errors.Wrap(err, "enabling bracketed paste")
		}
	}
	if s.opts.FocusReporting {
		if err := s.backend.WriteControl(csiFocusOn); err != nil {
			return errors.Wrap(err, "enabling focus reporting")
		}
	}
	if s.opts.KittyKeyboard {
		if err := s.backend.WriteControl(csiKittyPush); err != nil {
			return errors.Wrap(err, "pushing kitty keyboard flags")
		}
	}
	return nil
}

// popModes undoes pushModes in reverse order, best effort
func (s *Session) popModes() {
	if s.opts.KittyKeyboard {
		s.backend.WriteControl(csiKittyPop)
	}
	if s.opts.FocusReporting {
		s.backend.WriteControl(csiFocusOff)
	}
	if s.opts.BracketedPaste {
		s.backend.WriteControl(csiPasteOff)
	}
}

// NextEvent returns the next input event. timeout < 0 blocks until an event
// arrives, timeout == 0 performs a single non-blocking pass. An Event with
// Type EventNone and a nil error reports an elapsed timeout.
func (s *Session) NextEvent(timeout time.Duration) (Event, error) {
	if s.closed {
		return Event{}, errors.New("rawterm: session closed")
	}

	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		if len(s.queue) > 0 {
			return s.pop(), nil
		}
		if ev, ok := s.backend.PollNotification(); ok {
			s.queue = append(s.queue, ev)
			continue
		}

		// Wait no longer than the caller's deadline, the decoder's
		// disambiguation deadline, or one poll slice
		wait := pollSlice
		if timeout >= 0 {
			remain := time.Until(deadline)
			if remain < 0 {
				remain = 0
			}
			if remain < wait {
				wait = remain
			}
		}
		if dl, armed := s.dec.Deadline(); armed {
			if d := time.Until(dl); d < wait {
				wait = d
			}
		}
		if wait < 0 {
			wait = 0
		}

		n, events, _, err := s.backend.ReadInput(s.buf, wait)
		if err != nil {
			return Event{}, err
		}
		s.queue = append(s.queue, events...)
		if n > 0 {
			s.queue = append(s.queue, s.dec.Feed(s.buf[:n])...)
		}
		s.queue = append(s.queue, s.dec.CheckDeadline()...)

		if len(s.queue) > 0 {
			return s.pop(), nil
		}
		if timeout >= 0 && !time.Now().Before(deadline) {
			return Event{}, nil
		}
	}
}

func (s *Session) pop() Event {
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev
}

// PostEvent injects a synthetic event, delivered ahead of terminal input
// already buffered in the decoder
func (s *Session) PostEvent(ev Event) {
	s.queue = append(s.queue, ev)
}

// Size returns the terminal dimensions in character cells
func (s *Session) Size() (int, int, error) {
	return s.backend.Size()
}

// IsRaw reports whether the session currently holds the terminal raw
func (s *Session) IsRaw() bool {
	return s.raw.IsRaw()
}

// Close pops input protocol modes, restores the terminal and releases the
// backend. Safe to call twice.
func (s *Session) Close() error {
	if pdebug.Enabled {
		g := pdebug.Marker("Session.Close")
		defer g.End()
	}
	if s.closed {
		return nil
	}
	s.closed = true
	s.popModes()
	err := s.raw.Disable()
	if cerr := s.backend.Close(); err == nil {
		err = cerr
	}
	return err
}
