//go:build unix

package rawterm

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// termState is a saved termios snapshot
type termState struct {
	termios unix.Termios
}

type unixBackend struct {
	in         *os.File
	out        *os.File
	inFd       int
	outFd      int
	retryEINTR bool

	sigCh chan os.Signal
}

func newBackend(in, out *os.File, retryEINTR bool) Backend {
	b := &unixBackend{
		in:         in,
		out:        out,
		inFd:       int(in.Fd()),
		outFd:      int(out.Fd()),
		retryEINTR: retryEINTR,
		sigCh:      make(chan os.Signal, 1),
	}
	signal.Notify(b.sigCh, syscall.SIGWINCH)
	return b
}

func (b *unixBackend) IsTerminal() bool {
	return term.IsTerminal(b.inFd)
}

func (b *unixBackend) EnterRaw() (*termState, error) {
	cur, err := unix.IoctlGetTermios(b.inFd, ioctlReadTermios)
	if err != nil {
		return nil, platformErr("tcgetattr", err)
	}
	saved := &termState{termios: *cur}

	// Raw input: no echo, no line buffering, no signal generation, no
	// input translation. Output post-processing stays enabled so callers
	// can print normally.
	raw := *cur
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag |= unix.CS8
	// Reads happen only after POLLIN, so a blocking 1-byte minimum never
	// actually blocks and 0 bytes cleanly means EOF
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(b.inFd, ioctlWriteTermios, &raw); err != nil {
		return nil, platformErr("tcsetattr", err)
	}
	return saved, nil
}

func (b *unixBackend) LeaveRaw(st *termState) error {
	termios := st.termios
	if err := unix.IoctlSetTermios(b.inFd, ioctlWriteTermios, &termios); err != nil {
		return platformErr("tcsetattr", err)
	}
	return nil
}

func (b *unixBackend) ReadInput(buf []byte, timeout time.Duration) (int, []Event, bool, error) {
	ms := pollMillis(timeout)

	for {
		fds := []unix.PollFd{
			{Fd: int32(b.inFd), Events: unix.POLLIN},
		}
		n, err := unix.Poll(fds, ms)
		if err != nil {
			if err == unix.EINTR {
				if b.retryEINTR {
					continue
				}
				return 0, nil, false, platformErr("poll", err)
			}
			return 0, nil, false, platformErr("poll", err)
		}
		if n == 0 {
			return 0, nil, true, nil
		}

		rn, err := unix.Read(b.inFd, buf)
		if err != nil {
			if err == unix.EAGAIN {
				continue
			}
			if err == unix.EINTR {
				if b.retryEINTR {
					continue
				}
				return 0, nil, false, platformErr("read", err)
			}
			return 0, nil, false, platformErr("read", err)
		}
		if rn == 0 {
			return 0, nil, false, io.EOF
		}
		return rn, nil, false, nil
	}
}

func (b *unixBackend) Size() (int, int, error) {
	ws, err := unix.IoctlGetWinsize(b.outFd, unix.TIOCGWINSZ)
	if err == nil {
		return int(ws.Col), int(ws.Row), nil
	}
	if w, h, err2 := term.GetSize(b.inFd); err2 == nil {
		return w, h, nil
	}
	return 0, 0, platformErr("TIOCGWINSZ", err)
}

func (b *unixBackend) PollNotification() (Event, bool) {
	select {
	case <-b.sigCh:
		w, h, err := b.Size()
		if err != nil {
			return Event{}, false
		}
		return Event{Type: EventResize, Width: w, Height: h}, true
	default:
		return Event{}, false
	}
}

func (b *unixBackend) WriteControl(seq []byte) error {
	if _, err := b.out.Write(seq); err != nil {
		return platformErr("write", err)
	}
	return nil
}

func (b *unixBackend) Close() error {
	signal.Stop(b.sigCh)
	return nil
}

// pollMillis converts a timeout to poll(2) milliseconds; negative blocks
func pollMillis(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := int(d / time.Millisecond)
	if ms == 0 && d > 0 {
		ms = 1
	}
	return ms
}

// resetTerminalMode attempts to restore terminal to cooked mode
// Best-effort for crash recovery; errors ignored
func resetTerminalMode() {
	// Try to restore via /dev/tty (works even if stdin redirected)
	if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		defer tty.Close()
		fd := int(tty.Fd())
		if termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios); err == nil {
			termios.Lflag |= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
			termios.Iflag |= unix.ICRNL
			unix.IoctlSetTermios(fd, ioctlWriteTermios, termios)
		}
	}
}
