// @focus: #input { decode }
package rawterm

import (
	"time"
)

// DefaultEscapeTimeout is the wait after a lone ESC before it is reported
// as the Escape key rather than the start of a sequence
const DefaultEscapeTimeout = 50 * time.Millisecond

// maxPendingBytes bounds an unresolved sequence; anything longer is flushed
// as EventUnknown to keep the decoder live on garbage input
const maxPendingBytes = 128

type decoderState uint8

const (
	stateGround decoderState = iota
	stateEscape               // ESC seen, possibly followed by O
	stateCSI                  // collecting ESC [ parameters
	stateString               // OSC/DCS, runs until ST or BEL
	stateUTF8                 // collecting continuation bytes
	statePaste                // between bracketed paste markers
)

var pasteEndMark = []byte("\x1b[201~")

// Decoder is a resumable escape sequence parser. Bytes may be fed in
// arbitrary chunks; events come out identically however the input is split.
// Time never advances inside the decoder itself: the lone-ESC ambiguity is
// resolved by an armed deadline the caller observes between reads.
type Decoder struct {
	state   decoderState
	pending []byte // unresolved bytes including the leading ESC or UTF-8 lead
	need    int    // expected UTF-8 sequence length

	paste     []byte
	pasteTail int // bytes of pasteEndMark matched so far

	started time.Time // arrival of the first pending byte
	armed   bool
	timeout time.Duration
	now     func() time.Time
}

// NewDecoder creates a decoder. timeout <= 0 selects DefaultEscapeTimeout.
func NewDecoder(timeout time.Duration) *Decoder {
	if timeout <= 0 {
		timeout = DefaultEscapeTimeout
	}
	return &Decoder{
		pending: make([]byte, 0, 64),
		timeout: timeout,
		now:     time.Now,
	}
}

// Feed decodes a chunk of input bytes and returns the completed events.
// A pending sequence whose deadline has already passed is flushed before
// the new bytes are interpreted.
func (d *Decoder) Feed(p []byte) []Event {
	var events []Event
	if d.armed && !d.now().Before(d.started.Add(d.timeout)) {
		d.flushPending(&events)
	}
	for _, b := range p {
		d.step(b, &events)
	}
	return events
}

// Deadline returns the instant at which the pending sequence resolves as
// complete (lone ESC) or malformed, and whether one is armed.
func (d *Decoder) Deadline() (time.Time, bool) {
	if !d.armed {
		return time.Time{}, false
	}
	return d.started.Add(d.timeout), true
}

// CheckDeadline flushes the pending sequence if its deadline has passed.
// Call between reads; it never blocks or sleeps.
func (d *Decoder) CheckDeadline() []Event {
	if !d.armed || d.now().Before(d.started.Add(d.timeout)) {
		return nil
	}
	var events []Event
	d.flushPending(&events)
	return events
}

// Flush resolves whatever is pending as if no further bytes will arrive
// (stream end). The decoder returns to Ground.
func (d *Decoder) Flush() []Event {
	var events []Event
	if d.state == statePaste {
		events = append(events, Event{Type: EventPaste, Text: string(d.paste)})
		d.resetPaste()
		d.state = stateGround
		return events
	}
	d.flushPending(&events)
	return events
}

// flushPending resolves the unresolved sequence: a lone ESC is the Escape
// key, anything else is surfaced as unknown
func (d *Decoder) flushPending(events *[]Event) {
	switch d.state {
	case stateGround, statePaste:
	case stateEscape:
		if len(d.pending) == 1 {
			*events = append(*events, keyEvent(KeyEscape, ModNone))
		} else {
			*events = append(*events, unknownEvent(d.pending))
		}
	default:
		*events = append(*events, unknownEvent(d.pending))
	}
	if d.state != statePaste {
		d.toGround()
	}
}

func (d *Decoder) toGround() {
	d.state = stateGround
	d.pending = d.pending[:0]
	d.need = 0
	d.armed = false
}

func (d *Decoder) resetPaste() {
	d.paste = nil
	d.pasteTail = 0
}

// arm starts the disambiguation deadline from the first pending byte
func (d *Decoder) arm() {
	d.started = d.now()
	d.armed = true
}

func (d *Decoder) step(b byte, events *[]Event) {
	if d.state != stateGround && d.state != statePaste && len(d.pending) >= maxPendingBytes {
		*events = append(*events, unknownEvent(d.pending))
		d.toGround()
	}

	switch d.state {
	case stateGround:
		d.stepGround(b, events)
	case stateEscape:
		d.stepEscape(b, events)
	case stateCSI:
		d.stepCSI(b, events)
	case stateString:
		d.stepString(b, events)
	case stateUTF8:
		d.stepUTF8(b, events)
	case statePaste:
		d.stepPaste(b, events)
	}
}

func (d *Decoder) stepGround(b byte, events *[]Event) {
	switch {
	case b == 0x1b:
		d.state = stateEscape
		d.pending = append(d.pending, b)
		d.arm()
	case b == 0x7f:
		*events = append(*events, keyEvent(KeyBackspace, ModNone))
	case b < 0x20:
		*events = append(*events, controlKeyEvent(b))
	case b < 0x80:
		*events = append(*events, runeEvent(rune(b), ModNone))
	default:
		n := utf8SeqLen(b)
		if n == 0 {
			// Stray continuation or invalid lead byte
			*events = append(*events, unknownEvent([]byte{b}))
			return
		}
		d.state = stateUTF8
		d.need = n
		d.pending = append(d.pending, b)
		d.arm()
	}
}

func (d *Decoder) stepEscape(b byte, events *[]Event) {
	if len(d.pending) == 2 { // ESC O, b is the SS3 final
		d.pending = append(d.pending, b)
		if key, mod, ok := lookupSS3(d.pending[2:]); ok {
			*events = append(*events, keyEvent(key, mod))
		} else {
			*events = append(*events, unknownEvent(d.pending))
		}
		d.toGround()
		return
	}

	switch b {
	case '[':
		d.state = stateCSI
		d.pending = append(d.pending, b)
	case 'O':
		d.pending = append(d.pending, b)
	case ']', 'P': // OSC, DCS
		d.state = stateString
		d.pending = append(d.pending, b)
	default:
		// Not a sequence introducer: the ESC stands alone and the byte
		// is reinterpreted from Ground
		*events = append(*events, keyEvent(KeyEscape, ModNone))
		d.toGround()
		d.step(b, events)
	}
}

func (d *Decoder) stepCSI(b byte, events *[]Event) {
	// Legacy vt F1-F5 use a doubled bracket: ESC [ [ A..E
	if b == '[' && len(d.pending) == 2 {
		d.pending = append(d.pending, b)
		return
	}
	switch {
	case b >= 0x30 && b <= 0x3f: // parameter bytes, including ; < = > ?
		d.pending = append(d.pending, b)
	case b >= 0x20 && b <= 0x2f: // intermediate bytes
		d.pending = append(d.pending, b)
	case b >= 0x40 && b <= 0x7e: // final byte
		d.pending = append(d.pending, b)
		d.finishCSI(b, events)
	default:
		// Control byte inside a CSI sequence: malformed
		*events = append(*events, unknownEvent(d.pending))
		d.toGround()
		d.step(b, events)
	}
}

// finishCSI resolves a complete CSI sequence. Resolution order: paste
// marker, focus report, CSI-u, literal table, generic modified-key form.
func (d *Decoder) finishCSI(final byte, events *[]Event) {
	params := d.pending[2 : len(d.pending)-1]

	if final == '~' && string(params) == "200" {
		d.toGround()
		d.state = statePaste
		d.resetPaste()
		return
	}
	if final == 'I' && len(params) == 0 {
		*events = append(*events, Event{Type: EventFocus, Focused: true})
		d.toGround()
		return
	}
	if final == 'O' && len(params) == 0 {
		*events = append(*events, Event{Type: EventFocus, Focused: false})
		d.toGround()
		return
	}
	if final == 'u' {
		if ev, emit, ok := decodeCSIu(params); ok {
			if emit {
				*events = append(*events, ev)
			}
			d.toGround()
			return
		}
		*events = append(*events, unknownEvent(d.pending))
		d.toGround()
		return
	}

	seq := d.pending[2:]
	if key, mod, ok := lookupCSI(seq); ok {
		*events = append(*events, keyEvent(key, mod))
		d.toGround()
		return
	}
	if key, mod, ok := parseModifiedCSI(params, final); ok {
		*events = append(*events, keyEvent(key, mod))
		d.toGround()
		return
	}

	*events = append(*events, unknownEvent(d.pending))
	d.toGround()
}

func (d *Decoder) stepString(b byte, events *[]Event) {
	last := d.pending[len(d.pending)-1]
	if last == 0x1b {
		if b == '\\' { // ST terminates
			d.pending = append(d.pending, b)
			*events = append(*events, unknownEvent(d.pending))
			d.toGround()
			return
		}
		// ESC inside the string that is not ST aborts it and starts over
		*events = append(*events, unknownEvent(d.pending[:len(d.pending)-1]))
		d.toGround()
		d.step(0x1b, events)
		d.step(b, events)
		return
	}
	if b == 0x07 { // BEL terminates
		d.pending = append(d.pending, b)
		*events = append(*events, unknownEvent(d.pending))
		d.toGround()
		return
	}
	d.pending = append(d.pending, b)
}

func (d *Decoder) stepUTF8(b byte, events *[]Event) {
	if b&0xc0 != 0x80 {
		// Missing continuation byte, resync from Ground
		*events = append(*events, unknownEvent(d.pending))
		d.toGround()
		d.step(b, events)
		return
	}
	d.pending = append(d.pending, b)
	if len(d.pending) < d.need {
		return
	}
	r, size := decodeRune(d.pending)
	if size != d.need {
		*events = append(*events, unknownEvent(d.pending))
	} else {
		*events = append(*events, runeEvent(r, ModNone))
	}
	d.toGround()
}

func (d *Decoder) stepPaste(b byte, events *[]Event) {
	d.paste = append(d.paste, b)
	if b == pasteEndMark[d.pasteTail] {
		d.pasteTail++
		if d.pasteTail == len(pasteEndMark) {
			text := d.paste[:len(d.paste)-len(pasteEndMark)]
			*events = append(*events, Event{Type: EventPaste, Text: string(text)})
			d.resetPaste()
			d.state = stateGround
		}
		return
	}
	// The terminator has no internal repeats beyond its first byte
	if b == pasteEndMark[0] {
		d.pasteTail = 1
	} else {
		d.pasteTail = 0
	}
}

// utf8SeqLen returns expected UTF-8 sequence length from lead byte, 0 if invalid
func utf8SeqLen(b byte) int {
	if b < 0x80 {
		return 1
	}
	if b&0xe0 == 0xc0 {
		return 2
	}
	if b&0xf0 == 0xe0 {
		return 3
	}
	if b&0xf8 == 0xf0 {
		return 4
	}
	return 0
}

// decodeRune decodes the first UTF-8 rune from data
func decodeRune(data []byte) (rune, int) {
	if len(data) == 0 {
		return 0, 0
	}

	b := data[0]
	if b < 0x80 {
		return rune(b), 1
	}

	var size int
	var min rune
	var r rune

	switch {
	case b&0xe0 == 0xc0:
		size = 2
		min = 0x80
		r = rune(b & 0x1f)
	case b&0xf0 == 0xe0:
		size = 3
		min = 0x800
		r = rune(b & 0x0f)
	case b&0xf8 == 0xf0:
		size = 4
		min = 0x10000
		r = rune(b & 0x07)
	default:
		return 0xfffd, 1
	}

	if len(data) < size {
		return 0xfffd, 1
	}

	for i := 1; i < size; i++ {
		if data[i]&0xc0 != 0x80 {
			return 0xfffd, 1
		}
		r = r<<6 | rune(data[i]&0x3f)
	}

	if r < min {
		return 0xfffd, 1 // Overlong encoding
	}
	if r > 0x10ffff || (r >= 0xd800 && r <= 0xdfff) {
		return 0xfffd, 1
	}

	return r, size
}
