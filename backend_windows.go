//go:build windows

package rawterm

import (
	"os"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

// termState saves the console input and output modes
type termState struct {
	inMode  uint32
	outMode uint32
}

// ReadConsoleInputW is not exported by x/sys/windows
var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	procReadConsoleInputW = kernel32.NewProc("ReadConsoleInputW")
)

// INPUT_RECORD event types
const (
	keyEventRecord         = 0x0001
	mouseEventRecord       = 0x0002
	windowBufferSizeRecord = 0x0004
	menuEventRecord        = 0x0008
	focusEventRecord       = 0x0010
)

// dwControlKeyState flags
const (
	rightAltPressed  = 0x0001
	leftAltPressed   = 0x0002
	rightCtrlPressed = 0x0004
	leftCtrlPressed  = 0x0008
	shiftPressed     = 0x0010
)

// inputRecord mirrors INPUT_RECORD. The union payload is sized for
// KEY_EVENT_RECORD, its largest member.
type inputRecord struct {
	eventType uint16
	_         uint16
	data      [16]byte
}

// keyRecord mirrors KEY_EVENT_RECORD
type keyRecord struct {
	keyDown         int32
	repeatCount     uint16
	virtualKeyCode  uint16
	virtualScanCode uint16
	unicodeChar     uint16
	controlKeyState uint32
}

// coord mirrors COORD
type coord struct {
	x int16
	y int16
}

type windowsBackend struct {
	in      *os.File
	out     *os.File
	hin     windows.Handle
	hout    windows.Handle
	records [16]inputRecord

	// high surrogate carried across key records
	pendingSurrogate rune
}

func newBackend(in, out *os.File, retryEINTR bool) Backend {
	_ = retryEINTR // console waits are not interrupted by signals
	return &windowsBackend{
		in:   in,
		out:  out,
		hin:  windows.Handle(in.Fd()),
		hout: windows.Handle(out.Fd()),
	}
}

func (b *windowsBackend) IsTerminal() bool {
	var mode uint32
	return windows.GetConsoleMode(b.hin, &mode) == nil
}

func (b *windowsBackend) EnterRaw() (*termState, error) {
	var inMode, outMode uint32
	if err := windows.GetConsoleMode(b.hin, &inMode); err != nil {
		return nil, platformErr("GetConsoleMode", err)
	}
	if err := windows.GetConsoleMode(b.hout, &outMode); err != nil {
		return nil, platformErr("GetConsoleMode", err)
	}
	saved := &termState{inMode: inMode, outMode: outMode}

	// Raw input: no echo, no line buffering, no Ctrl+C processing.
	// Window records are kept on for resize reporting.
	raw := inMode &^ uint32(windows.ENABLE_ECHO_INPUT|windows.ENABLE_LINE_INPUT|
		windows.ENABLE_PROCESSED_INPUT|windows.ENABLE_MOUSE_INPUT)
	raw |= windows.ENABLE_WINDOW_INPUT | windows.ENABLE_EXTENDED_FLAGS
	if err := windows.SetConsoleMode(b.hin, raw); err != nil {
		return nil, platformErr("SetConsoleMode", err)
	}

	// VT processing on output so control sequence writes take effect
	if err := windows.SetConsoleMode(b.hout, outMode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		windows.SetConsoleMode(b.hin, inMode)
		return nil, platformErr("SetConsoleMode", err)
	}
	return saved, nil
}

func (b *windowsBackend) LeaveRaw(st *termState) error {
	errIn := windows.SetConsoleMode(b.hin, st.inMode)
	errOut := windows.SetConsoleMode(b.hout, st.outMode)
	if errIn != nil {
		return platformErr("SetConsoleMode", errIn)
	}
	if errOut != nil {
		return platformErr("SetConsoleMode", errOut)
	}
	return nil
}

func (b *windowsBackend) ReadInput(buf []byte, timeout time.Duration) (int, []Event, bool, error) {
	rc, err := windows.WaitForSingleObject(b.hin, waitMillis(timeout))
	if err != nil {
		return 0, nil, false, platformErr("WaitForSingleObject", err)
	}
	if rc == uint32(windows.WAIT_TIMEOUT) {
		return 0, nil, true, nil
	}

	var read uint32
	r1, _, callErr := procReadConsoleInputW.Call(
		uintptr(b.hin),
		uintptr(unsafe.Pointer(&b.records[0])),
		uintptr(len(b.records)),
		uintptr(unsafe.Pointer(&read)),
	)
	if r1 == 0 {
		return 0, nil, false, platformErr("ReadConsoleInputW", callErr)
	}

	// Records translate directly to events, preserving arrival order
	var events []Event
	for i := uint32(0); i < read; i++ {
		rec := &b.records[i]
		switch rec.eventType {
		case keyEventRecord:
			kr := (*keyRecord)(unsafe.Pointer(&rec.data[0]))
			ev, ok := b.translateKey(kr)
			if !ok {
				continue
			}
			repeat := int(kr.repeatCount)
			if repeat < 1 {
				repeat = 1
			}
			for n := 0; n < repeat; n++ {
				events = append(events, ev)
			}
		case windowBufferSizeRecord:
			c := (*coord)(unsafe.Pointer(&rec.data[0]))
			events = append(events, Event{Type: EventResize, Width: int(c.x), Height: int(c.y)})
		case focusEventRecord:
			events = append(events, Event{Type: EventFocus, Focused: rec.data[0] != 0})
		case mouseEventRecord, menuEventRecord:
			// Not surfaced
		}
	}
	return 0, events, false, nil
}

// Virtual key codes without a character translation
var vkKeys = map[uint16]KeyCode{
	0x08: KeyBackspace, // VK_BACK
	0x09: KeyTab,       // VK_TAB
	0x0d: KeyEnter,     // VK_RETURN
	0x1b: KeyEscape,    // VK_ESCAPE
	0x21: KeyPageUp,    // VK_PRIOR
	0x22: KeyPageDown,  // VK_NEXT
	0x23: KeyEnd,       // VK_END
	0x24: KeyHome,      // VK_HOME
	0x25: KeyLeft,      // VK_LEFT
	0x26: KeyUp,        // VK_UP
	0x27: KeyRight,     // VK_RIGHT
	0x28: KeyDown,      // VK_DOWN
	0x2d: KeyInsert,    // VK_INSERT
	0x2e: KeyDelete,    // VK_DELETE
	0x70: KeyF1,
	0x71: KeyF2,
	0x72: KeyF3,
	0x73: KeyF4,
	0x74: KeyF5,
	0x75: KeyF6,
	0x76: KeyF7,
	0x77: KeyF8,
	0x78: KeyF9,
	0x79: KeyF10,
	0x7a: KeyF11,
	0x7b: KeyF12,
}

func (b *windowsBackend) translateKey(kr *keyRecord) (Event, bool) {
	if kr.keyDown == 0 {
		return Event{}, false
	}
	mod := translateControlState(kr.controlKeyState)

	if key, ok := vkKeys[kr.virtualKeyCode]; ok {
		return keyEvent(key, mod), true
	}

	c := kr.unicodeChar
	if c == 0 {
		// Bare modifier or dead key
		return Event{}, false
	}

	// Surrogate pairs arrive as two consecutive key records
	if utf16.IsSurrogate(rune(c)) {
		if b.pendingSurrogate != 0 {
			r := utf16.DecodeRune(b.pendingSurrogate, rune(c))
			b.pendingSurrogate = 0
			if r == 0xfffd {
				return Event{}, false
			}
			return runeEvent(r, mod), true
		}
		b.pendingSurrogate = rune(c)
		return Event{}, false
	}

	if c < 0x20 || c == 0x7f {
		ev := controlKeyEvent(byte(c))
		ev.Modifiers |= mod
		return ev, true
	}
	return runeEvent(rune(c), mod), true
}

func translateControlState(state uint32) Modifiers {
	var mod Modifiers
	if state&shiftPressed != 0 {
		mod |= ModShift
	}
	if state&(leftAltPressed|rightAltPressed) != 0 {
		mod |= ModAlt
	}
	if state&(leftCtrlPressed|rightCtrlPressed) != 0 {
		mod |= ModCtrl
	}
	return mod
}

func (b *windowsBackend) Size() (int, int, error) {
	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(b.hout, &info); err != nil {
		return 0, 0, platformErr("GetConsoleScreenBufferInfo", err)
	}
	w := int(info.Window.Right-info.Window.Left) + 1
	h := int(info.Window.Bottom-info.Window.Top) + 1
	return w, h, nil
}

func (b *windowsBackend) PollNotification() (Event, bool) {
	// Resize and focus arrive in-band as console records
	return Event{}, false
}

func (b *windowsBackend) WriteControl(seq []byte) error {
	if _, err := b.out.Write(seq); err != nil {
		return platformErr("WriteFile", err)
	}
	return nil
}

func (b *windowsBackend) Close() error {
	return nil
}

func waitMillis(d time.Duration) uint32 {
	if d < 0 {
		return windows.INFINITE
	}
	ms := d / time.Millisecond
	if ms == 0 && d > 0 {
		ms = 1
	}
	return uint32(ms)
}

// resetTerminalMode restores sane console input flags, best effort
func resetTerminalMode() {
	h, err := windows.GetStdHandle(windows.STD_INPUT_HANDLE)
	if err != nil {
		return
	}
	var mode uint32
	if windows.GetConsoleMode(h, &mode) != nil {
		return
	}
	mode |= windows.ENABLE_ECHO_INPUT | windows.ENABLE_LINE_INPUT | windows.ENABLE_PROCESSED_INPUT
	windows.SetConsoleMode(h, mode)
}
