package rawterm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Encoding a key event and decoding the bytes must yield the same event
func TestCSIuRoundTrip(t *testing.T) {
	cases := []Event{
		runeEvent('a', ModNone),
		runeEvent('A', ModShift),
		runeEvent('z', ModCtrl),
		runeEvent(' ', ModCtrl),
		runeEvent('é', ModAlt),
		runeEvent('😀', ModNone),
		keyEvent(KeyUp, ModCtrl),
		keyEvent(KeyDown, ModShift|ModAlt),
		keyEvent(KeyLeft, ModSuper),
		keyEvent(KeyRight, ModShift|ModAlt|ModCtrl|ModSuper),
		keyEvent(KeyEnter, ModNone),
		keyEvent(KeyTab, ModShift),
		keyEvent(KeyEscape, ModCtrl),
		keyEvent(KeyBackspace, ModNone),
		keyEvent(KeyDelete, ModSuper),
		keyEvent(KeyHome, ModNone),
		keyEvent(KeyEnd, ModAlt),
		keyEvent(KeyPageUp, ModNone),
		keyEvent(KeyPageDown, ModCtrl),
		keyEvent(KeyInsert, ModNone),
		keyEvent(KeyF1, ModNone),
		keyEvent(KeyF5, ModAlt|ModSuper),
		keyEvent(KeyF12, ModShift),
	}

	for _, ev := range cases {
		t.Run(ev.Key.String(), func(t *testing.T) {
			encoded, ok := AppendKeyCSIu(nil, ev)
			require.True(t, ok)
			require.Equal(t, byte(0x1b), encoded[0])
			require.Equal(t, byte('u'), encoded[len(encoded)-1])

			d, _ := newTestDecoder()
			events := d.Feed(encoded)
			require.Len(t, events, 1)
			assert.Equal(t, ev, events[0])
		})
	}
}

func TestAppendKeyCSIuUnencodable(t *testing.T) {
	cases := []Event{
		{Type: EventResize, Width: 80, Height: 24},
		{Type: EventPaste, Text: "x"},
		keyEvent(KeyNone, ModNone),
		runeEvent(0x03, ModNone), // control runes have no CSI-u scalar form
	}
	for _, ev := range cases {
		_, ok := AppendKeyCSIu(nil, ev)
		assert.False(t, ok)
	}
}

func TestAppendKeyCSIuOmitsDefaultModifier(t *testing.T) {
	encoded, ok := AppendKeyCSIu(nil, runeEvent('a', ModNone))
	require.True(t, ok)
	assert.Equal(t, "\x1b[97u", string(encoded))

	encoded, ok = AppendKeyCSIu(nil, runeEvent('a', ModCtrl))
	require.True(t, ok)
	assert.Equal(t, "\x1b[97;5u", string(encoded))
}

func TestDecodeCSIuForms(t *testing.T) {
	cases := []struct {
		name   string
		params string
		want   Event
		emit   bool
		ok     bool
	}{
		{"plain scalar", "97", runeEvent('a', ModNone), true, true},
		{"with modifier", "97;3", runeEvent('a', ModAlt), true, true},
		{"shifted key subparam ignored", "97:65;2", runeEvent('a', ModShift), true, true},
		{"explicit press", "97;5:1", runeEvent('a', ModCtrl), true, true},
		{"repeat treated as press", "97;1:2", runeEvent('a', ModNone), true, true},
		{"release swallowed", "97;1:3", Event{}, false, true},
		{"bare modifier key", "57441;1", Event{}, false, true},
		{"keypad enter alias", "57414", keyEvent(KeyEnter, ModNone), true, true},
		{"unassigned functional", "57358", Event{}, false, false},
		{"zero code", "0", Event{}, false, false},
		{"empty", "", Event{}, false, false},
		{"garbage", "12x", Event{}, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, emit, ok := decodeCSIu([]byte(tc.params))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.emit, emit)
			if tc.emit {
				assert.Equal(t, tc.want, ev)
			}
		})
	}
}
