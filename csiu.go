// @focus: #input { kitty }
package rawterm

import "unicode/utf8"

// Functional key codes assigned by the kitty keyboard protocol. Keys the
// protocol defines but this package has no KeyCode for (CapsLock, media
// keys, F13+) fall through and surface as EventUnknown.
var csiuKeyCodes = map[int]KeyCode{
	9:   KeyTab,
	13:  KeyEnter,
	27:  KeyEscape,
	127: KeyBackspace,

	57364: KeyF1,
	57365: KeyF2,
	57366: KeyF3,
	57367: KeyF4,
	57368: KeyF5,
	57369: KeyF6,
	57370: KeyF7,
	57371: KeyF8,
	57372: KeyF9,
	57373: KeyF10,
	57374: KeyF11,
	57375: KeyF12,

	57414: KeyEnter, // Keypad Enter
	57417: KeyUp,
	57418: KeyDown,
	57419: KeyLeft,
	57420: KeyRight,
	57421: KeyPageUp,
	57422: KeyPageDown,
	57423: KeyHome,
	57424: KeyEnd,
	57425: KeyInsert,
	57426: KeyDelete,
}

// Canonical encoding codes, one per KeyCode (the decode table also accepts
// aliases such as keypad Enter)
var csiuCanonical = map[KeyCode]int{
	KeyTab:       9,
	KeyEnter:     13,
	KeyEscape:    27,
	KeyBackspace: 127,
	KeyF1:        57364,
	KeyF2:        57365,
	KeyF3:        57366,
	KeyF4:        57367,
	KeyF5:        57368,
	KeyF6:        57369,
	KeyF7:        57370,
	KeyF8:        57371,
	KeyF9:        57372,
	KeyF10:       57373,
	KeyF11:       57374,
	KeyF12:       57375,
	KeyUp:        57417,
	KeyDown:      57418,
	KeyLeft:      57419,
	KeyRight:     57420,
	KeyPageUp:    57421,
	KeyPageDown:  57422,
	KeyHome:      57423,
	KeyEnd:       57424,
	KeyInsert:    57425,
	KeyDelete:    57426,
}

// Standalone modifier key codes (left 57441-57446, right 57447-57452).
// Bare modifier presses carry no information for a key-oriented consumer
// and are swallowed.
func isCSIuModifierKey(code int) bool {
	return code >= 57441 && code <= 57452
}

// CSI-u event subparameter values
const (
	csiuEventPress   = 1
	csiuEventRepeat  = 2
	csiuEventRelease = 3
)

// decodeCSIu parses the parameter bytes of a CSI ... u sequence:
// keycode[:shifted[:base]] ; modifiers[:event] [; text].
// emit=false with ok=true means the sequence was understood but produces no
// Event (release, bare modifier).
func decodeCSIu(params []byte) (ev Event, emit bool, ok bool) {
	code, rest, ok := csiuField(params)
	if !ok || code <= 0 {
		return Event{}, false, false
	}

	modParam := 1
	event := csiuEventPress
	if len(rest) > 0 {
		var sub []byte
		modParam, sub, ok = csiuFieldSub(rest)
		if !ok {
			return Event{}, false, false
		}
		if len(sub) > 0 {
			if event, ok = csiuInt(sub); !ok {
				return Event{}, false, false
			}
		}
	}

	if event == csiuEventRelease || isCSIuModifierKey(code) {
		return Event{}, false, true
	}

	mod := modifiersFromParam(modParam)
	if key, found := csiuKeyCodes[code]; found {
		return keyEvent(key, mod), true, true
	}
	if code < 0x20 || !utf8.ValidRune(rune(code)) {
		return Event{}, false, false
	}
	if code >= 57344 && code <= 63743 { // unassigned private use
		return Event{}, false, false
	}
	return runeEvent(rune(code), mod), true, true
}

// csiuField reads the leading integer of the first ;-separated field,
// ignoring : subparameters, and returns the remaining fields
func csiuField(params []byte) (val int, rest []byte, ok bool) {
	end := len(params)
	for i, b := range params {
		if b == ';' {
			end = i
			break
		}
	}
	field := params[:end]
	if end < len(params) {
		rest = params[end+1:]
	}
	for i, b := range field {
		if b == ':' {
			field = field[:i]
			break
		}
	}
	val, ok = csiuInt(field)
	return val, rest, ok
}

// csiuFieldSub reads the leading integer of the first field and returns its
// first : subparameter (the event type on the modifier field)
func csiuFieldSub(params []byte) (val int, sub []byte, ok bool) {
	end := len(params)
	for i, b := range params {
		if b == ';' {
			end = i
			break
		}
	}
	field := params[:end]
	for i, b := range field {
		if b == ':' {
			sub = field[i+1:]
			field = field[:i]
			break
		}
	}
	val, ok = csiuInt(field)
	return val, sub, ok
}

func csiuInt(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
		if n > 0x10ffff {
			return 0, false
		}
	}
	return n, true
}

// AppendKeyCSIu appends the canonical kitty CSI-u encoding of a key event
// to dst. Only EventKey events are encodable; decoding the produced bytes
// yields an Event with the same KeyCode, Rune and Modifiers.
func AppendKeyCSIu(dst []byte, ev Event) ([]byte, bool) {
	if ev.Type != EventKey {
		return dst, false
	}
	var code int
	if ev.Key == KeyRune {
		if ev.Rune < 0x20 || !utf8.ValidRune(ev.Rune) {
			return dst, false
		}
		code = int(ev.Rune)
	} else {
		c, found := csiuCanonical[ev.Key]
		if !found {
			return dst, false
		}
		code = c
	}

	dst = append(dst, 0x1b, '[')
	dst = appendInt(dst, code)
	if ev.Modifiers != ModNone {
		dst = append(dst, ';')
		dst = appendInt(dst, 1+int(ev.Modifiers))
	}
	return append(dst, 'u'), true
}

// appendInt appends a non-negative decimal without allocation
func appendInt(dst []byte, n int) []byte {
	if n < 10 {
		return append(dst, byte(n)+'0')
	}
	var buf [8]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte(n%10) + '0'
		n /= 10
	}
	return append(dst, buf[i:]...)
}
