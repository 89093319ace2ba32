package rawterm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives decoder deadlines without sleeping
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestDecoder() (*Decoder, *fakeClock) {
	clk := newFakeClock()
	d := NewDecoder(DefaultEscapeTimeout)
	d.now = clk.now
	return d, clk
}

func TestDecodePlainRune(t *testing.T) {
	d, _ := newTestDecoder()

	events := d.Feed([]byte{0x61})
	require.Len(t, events, 1)
	assert.Equal(t, runeEvent('a', ModNone), events[0])

	// No residual state
	assert.Equal(t, stateGround, d.state)
	assert.Empty(t, d.pending)
	_, armed := d.Deadline()
	assert.False(t, armed)
}

func TestDecodeSequences(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []Event
	}{
		{"ctrl up", "\x1b[1;5A", []Event{keyEvent(KeyUp, ModCtrl)}},
		{"plain arrows", "\x1b[A\x1b[D", []Event{keyEvent(KeyUp, ModNone), keyEvent(KeyLeft, ModNone)}},
		{"ss3 f1", "\x1bOP", []Event{keyEvent(KeyF1, ModNone)}},
		{"ss3 keypad enter", "\x1bOM", []Event{keyEvent(KeyEnter, ModNone)}},
		{"backtab", "\x1b[Z", []Event{keyEvent(KeyTab, ModShift)}},
		{"home tilde", "\x1b[1~", []Event{keyEvent(KeyHome, ModNone)}},
		{"delete", "\x1b[3~", []Event{keyEvent(KeyDelete, ModNone)}},
		{"f6", "\x1b[17~", []Event{keyEvent(KeyF6, ModNone)}},
		{"vt f1", "\x1b[[A", []Event{keyEvent(KeyF1, ModNone)}},
		{"shift ctrl right", "\x1b[1;6C", []Event{keyEvent(KeyRight, ModShift | ModCtrl)}},
		{"super up", "\x1b[1;9A", []Event{keyEvent(KeyUp, ModSuper)}},
		{"ctrl f5", "\x1b[15;5~", []Event{keyEvent(KeyF5, ModCtrl)}},
		{"alt home", "\x1b[1;3H", []Event{keyEvent(KeyHome, ModAlt)}},
		{"enter", "\x0d", []Event{keyEvent(KeyEnter, ModNone)}},
		{"tab", "\x09", []Event{keyEvent(KeyTab, ModNone)}},
		{"del byte", "\x7f", []Event{keyEvent(KeyBackspace, ModNone)}},
		{"ctrl letter", "\x03", []Event{runeEvent('c', ModCtrl)}},
		{"ctrl space", "\x00", []Event{runeEvent(' ', ModCtrl)}},
		{"ctrl backslash", "\x1c", []Event{runeEvent('\\', ModCtrl)}},
		{"two byte utf8", "\xc3\xa9", []Event{runeEvent('é', ModNone)}},
		{"four byte utf8", "\xf0\x9f\x98\x80", []Event{runeEvent('😀', ModNone)}},
		{"focus gained", "\x1b[I", []Event{{Type: EventFocus, Focused: true}}},
		{"focus lost", "\x1b[O", []Event{{Type: EventFocus, Focused: false}}},
		{"paste", "\x1b[200~hi\x1b[201~", []Event{{Type: EventPaste, Text: "hi"}}},
		{"paste with escape inside", "\x1b[200~a\x1bb\x1b[201~", []Event{{Type: EventPaste, Text: "a\x1bb"}}},
		{"csiu ctrl a", "\x1b[97;5u", []Event{runeEvent('a', ModCtrl)}},
		{"csiu release dropped", "\x1b[97;1:3u", nil},
		{"csiu repeat", "\x1b[97;1:2u", []Event{runeEvent('a', ModNone)}},
		{"csiu shift up", "\x1b[57417;2u", []Event{keyEvent(KeyUp, ModShift)}},
		{"csiu bare modifier", "\x1b[57441u", nil},
		{"csiu super enter", "\x1b[13;9u", []Event{keyEvent(KeyEnter, ModSuper)}},
		{"unknown csi", "\x1b[5X", []Event{{Type: EventUnknown, Raw: []byte("\x1b[5X")}}},
		{"unknown ss3", "\x1bOz", []Event{{Type: EventUnknown, Raw: []byte("\x1bOz")}}},
		{"osc bel", "\x1b]0;title\x07", []Event{{Type: EventUnknown, Raw: []byte("\x1b]0;title\x07")}}},
		{"osc st", "\x1b]0;t\x1b\\", []Event{{Type: EventUnknown, Raw: []byte("\x1b]0;t\x1b\\")}}},
		{"dcs st", "\x1bPq\x1b\\", []Event{{Type: EventUnknown, Raw: []byte("\x1bPq\x1b\\")}}},
		{"stray continuation", "\x80", []Event{{Type: EventUnknown, Raw: []byte{0x80}}}},
		{"stray paste end", "\x1b[201~", []Event{{Type: EventUnknown, Raw: []byte("\x1b[201~")}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, _ := newTestDecoder()
			events := d.Feed([]byte(tc.input))
			assert.Equal(t, tc.want, events)
			assert.Equal(t, stateGround, d.state, "decoder must return to ground")
		})
	}
}

// Decoding must not depend on how the byte stream is chunked
func TestSplitInvariance(t *testing.T) {
	input := []byte("a\x1b[1;5A\xc3\xa9\x1b[200~x y\x1b[201~\x1b[57417;2u\x1b[I\x04")

	d, _ := newTestDecoder()
	whole := d.Feed(input)
	require.NotEmpty(t, whole)

	// Every single split point
	for i := 1; i < len(input); i++ {
		d, _ := newTestDecoder()
		var got []Event
		got = append(got, d.Feed(input[:i])...)
		got = append(got, d.Feed(input[i:])...)
		assert.Equal(t, whole, got, "split at %d", i)
	}

	// Byte at a time
	d, _ = newTestDecoder()
	var got []Event
	for _, b := range input {
		got = append(got, d.Feed([]byte{b})...)
	}
	assert.Equal(t, whole, got)
}

func TestLoneEscapeDeadline(t *testing.T) {
	d, clk := newTestDecoder()

	require.Empty(t, d.Feed([]byte{0x1b}))
	dl, armed := d.Deadline()
	require.True(t, armed)
	assert.Equal(t, clk.now().Add(DefaultEscapeTimeout), dl)

	// Not expired yet
	assert.Empty(t, d.CheckDeadline())

	clk.advance(DefaultEscapeTimeout + time.Millisecond)
	events := d.CheckDeadline()
	require.Len(t, events, 1)
	assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])

	_, armed = d.Deadline()
	assert.False(t, armed)
	assert.Equal(t, stateGround, d.state)

	// Nothing further
	assert.Empty(t, d.CheckDeadline())
}

func TestEscapeResolvedEarlyByByte(t *testing.T) {
	d, _ := newTestDecoder()

	require.Empty(t, d.Feed([]byte{0x1b}))
	events := d.Feed([]byte("a"))
	require.Len(t, events, 2)
	assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])
	assert.Equal(t, runeEvent('a', ModNone), events[1])

	_, armed := d.Deadline()
	assert.False(t, armed)
}

func TestEscapeEscape(t *testing.T) {
	d, clk := newTestDecoder()

	events := d.Feed([]byte{0x1b, 0x1b})
	require.Len(t, events, 1)
	assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])

	clk.advance(DefaultEscapeTimeout + time.Millisecond)
	events = d.CheckDeadline()
	require.Len(t, events, 1)
	assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])
}

func TestIncompleteCSIFlushedAsUnknown(t *testing.T) {
	d, clk := newTestDecoder()

	require.Empty(t, d.Feed([]byte("\x1b[1;5")))
	clk.advance(DefaultEscapeTimeout + time.Millisecond)

	events := d.CheckDeadline()
	require.Len(t, events, 1)
	assert.Equal(t, Event{Type: EventUnknown, Raw: []byte("\x1b[1;5")}, events[0])
	assert.Equal(t, stateGround, d.state)

	// Next input decodes normally
	events = d.Feed([]byte("b"))
	require.Len(t, events, 1)
	assert.Equal(t, runeEvent('b', ModNone), events[0])
}

// Bytes fed after an expired deadline must not resurrect the old sequence
func TestFeedAfterDeadlineFlushesFirst(t *testing.T) {
	d, clk := newTestDecoder()

	require.Empty(t, d.Feed([]byte{0x1b}))
	clk.advance(DefaultEscapeTimeout + time.Millisecond)

	events := d.Feed([]byte("[A"))
	require.Len(t, events, 3)
	assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])
	assert.Equal(t, runeEvent('[', ModNone), events[1])
	assert.Equal(t, runeEvent('A', ModNone), events[2])
}

func TestInvalidUTF8Continuation(t *testing.T) {
	d, _ := newTestDecoder()

	events := d.Feed([]byte{0xc3, 0x41})
	require.Len(t, events, 2)
	assert.Equal(t, Event{Type: EventUnknown, Raw: []byte{0xc3}}, events[0])
	assert.Equal(t, runeEvent('A', ModNone), events[1])
}

func TestOverlongUTF8Rejected(t *testing.T) {
	d, _ := newTestDecoder()

	// 0xc0 0xaf is an overlong encoding of '/'
	events := d.Feed([]byte{0xc0, 0xaf})
	require.Len(t, events, 1)
	assert.Equal(t, EventUnknown, events[0].Type)
}

func TestControlByteAbortsCSI(t *testing.T) {
	d, _ := newTestDecoder()

	events := d.Feed([]byte("\x1b[1;\x03"))
	require.Len(t, events, 2)
	assert.Equal(t, Event{Type: EventUnknown, Raw: []byte("\x1b[1;")}, events[0])
	assert.Equal(t, runeEvent('c', ModCtrl), events[1])
}

func TestFlush(t *testing.T) {
	t.Run("lone escape", func(t *testing.T) {
		d, _ := newTestDecoder()
		d.Feed([]byte{0x1b})
		events := d.Flush()
		require.Len(t, events, 1)
		assert.Equal(t, keyEvent(KeyEscape, ModNone), events[0])
	})

	t.Run("partial csi", func(t *testing.T) {
		d, _ := newTestDecoder()
		d.Feed([]byte("\x1b[12"))
		events := d.Flush()
		require.Len(t, events, 1)
		assert.Equal(t, Event{Type: EventUnknown, Raw: []byte("\x1b[12")}, events[0])
	})

	t.Run("unterminated paste", func(t *testing.T) {
		d, _ := newTestDecoder()
		d.Feed([]byte("\x1b[200~abc"))
		events := d.Flush()
		require.Len(t, events, 1)
		assert.Equal(t, Event{Type: EventPaste, Text: "abc"}, events[0])
		assert.Equal(t, stateGround, d.state)
	})

	t.Run("ground is a no-op", func(t *testing.T) {
		d, _ := newTestDecoder()
		assert.Empty(t, d.Flush())
	})
}

func TestRunawaySequenceBounded(t *testing.T) {
	d, _ := newTestDecoder()

	d.Feed([]byte{0x1b, '['})
	var events []Event
	for i := 0; i < maxPendingBytes+16; i++ {
		events = append(events, d.Feed([]byte(";"))...)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, EventUnknown, events[0].Type)
}

func TestPasteSplitAcrossReads(t *testing.T) {
	d, _ := newTestDecoder()

	require.Empty(t, d.Feed([]byte("\x1b[200~hel")))
	require.Empty(t, d.Feed([]byte("lo\x1b[2")))
	events := d.Feed([]byte("01~"))
	require.Len(t, events, 1)
	assert.Equal(t, Event{Type: EventPaste, Text: "hello"}, events[0])
}
