// @focus: #input { keys }
package rawterm

// KeyCode represents a parsed input key
type KeyCode uint16

// Key constants - designed for expansion
const (
	KeyNone KeyCode = iota
	KeyRune         // Printable character (check Event.Rune)

	// Control keys
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete

	// Navigation
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert

	// Function keys
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[KeyCode]string{
	KeyNone:      "None",
	KeyRune:      "Rune",
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	KeyInsert:    "Insert",
	KeyF1:        "F1",
	KeyF2:        "F2",
	KeyF3:        "F3",
	KeyF4:        "F4",
	KeyF5:        "F5",
	KeyF6:        "F6",
	KeyF7:        "F7",
	KeyF8:        "F8",
	KeyF9:        "F9",
	KeyF10:       "F10",
	KeyF11:       "F11",
	KeyF12:       "F12",
}

func (k KeyCode) String() string {
	if n, ok := keyNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Modifiers is a bitset of modifier keys held with an input key
type Modifiers uint8

const (
	ModNone  Modifiers = 0
	ModShift Modifiers = 1 << 0
	ModAlt   Modifiers = 1 << 1
	ModCtrl  Modifiers = 1 << 2
	ModSuper Modifiers = 1 << 3
)

// Has reports whether all flags in mask are set
func (m Modifiers) Has(mask Modifiers) bool {
	return m&mask == mask
}

func (m Modifiers) String() string {
	if m == ModNone {
		return ""
	}
	var buf [23]byte
	out := buf[:0]
	if m&ModShift != 0 {
		out = append(out, "Shift+"...)
	}
	if m&ModAlt != 0 {
		out = append(out, "Alt+"...)
	}
	if m&ModCtrl != 0 {
		out = append(out, "Ctrl+"...)
	}
	if m&ModSuper != 0 {
		out = append(out, "Super+"...)
	}
	return string(out[:len(out)-1])
}

// controlKeyEvent maps C0 control bytes to key events.
// Letters are reported as KeyRune with ModCtrl so the decoded form matches
// the CSI-u representation of the same chord.
func controlKeyEvent(b byte) Event {
	switch b {
	case 0x00: // Ctrl+Space or Ctrl+@
		return runeEvent(' ', ModCtrl)
	case 0x08: // Ctrl+H, commonly Backspace
		return keyEvent(KeyBackspace, ModNone)
	case 0x09:
		return keyEvent(KeyTab, ModNone)
	case 0x0a, 0x0d: // LF, CR (Enter)
		return keyEvent(KeyEnter, ModNone)
	case 0x1b:
		return keyEvent(KeyEscape, ModNone)
	}
	if b >= 0x01 && b <= 0x1a {
		return runeEvent(rune('a'+b-0x01), ModCtrl)
	}
	if b >= 0x1c && b <= 0x1f { // FS GS RS US -> Ctrl+\ ] ^ _
		return runeEvent(rune(b+0x40), ModCtrl)
	}
	return keyEvent(KeyNone, ModNone)
}
