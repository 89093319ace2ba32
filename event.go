package rawterm

// EventType distinguishes input event categories
type EventType uint8

const (
	EventNone EventType = iota // No event (timeout)
	EventKey
	EventResize
	EventFocus
	EventPaste
	EventUnknown // Well-formed but unrecognized sequence
)

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       KeyCode
	Rune      rune // For KeyRune
	Modifiers Modifiers

	Width  int // For EventResize
	Height int // For EventResize

	Focused bool // For EventFocus: true on focus gained

	Text string // For EventPaste

	Raw []byte // For EventUnknown: the sequence as received
}

func keyEvent(key KeyCode, mod Modifiers) Event {
	return Event{Type: EventKey, Key: key, Modifiers: mod}
}

func runeEvent(r rune, mod Modifiers) Event {
	return Event{Type: EventKey, Key: KeyRune, Rune: r, Modifiers: mod}
}

func unknownEvent(seq []byte) Event {
	raw := make([]byte, len(seq))
	copy(raw, seq)
	return Event{Type: EventUnknown, Raw: raw}
}
