// @focus: #input { sequences }
package rawterm

// escapeSequence maps escape sequences to keys
// Key: sequence after ESC [ (e.g., "A" for up arrow)
type escapeSequence struct {
	seq string
	key KeyCode
	mod Modifiers
}

// Known escape sequences (CSI sequences: ESC [ ...)
// Combinations not listed here fall through to parseModifiedCSI.
var csiSequences = []escapeSequence{
	// Arrow keys
	{"A", KeyUp, ModNone},
	{"B", KeyDown, ModNone},
	{"C", KeyRight, ModNone},
	{"D", KeyLeft, ModNone},
	{"Z", KeyTab, ModShift}, // Backtab

	// Arrow keys with modifiers (xterm style: ESC [ 1 ; mod X)
	{"1;2A", KeyUp, ModShift},
	{"1;2B", KeyDown, ModShift},
	{"1;2C", KeyRight, ModShift},
	{"1;2D", KeyLeft, ModShift},
	{"1;3A", KeyUp, ModAlt},
	{"1;3B", KeyDown, ModAlt},
	{"1;3C", KeyRight, ModAlt},
	{"1;3D", KeyLeft, ModAlt},
	{"1;5A", KeyUp, ModCtrl},
	{"1;5B", KeyDown, ModCtrl},
	{"1;5C", KeyRight, ModCtrl},
	{"1;5D", KeyLeft, ModCtrl},

	// Navigation
	{"H", KeyHome, ModNone},
	{"F", KeyEnd, ModNone},
	{"1~", KeyHome, ModNone},
	{"4~", KeyEnd, ModNone},
	{"5~", KeyPageUp, ModNone},
	{"6~", KeyPageDown, ModNone},
	{"2~", KeyInsert, ModNone},
	{"3~", KeyDelete, ModNone},
	{"7~", KeyHome, ModNone},
	{"8~", KeyEnd, ModNone},

	// Function keys (xterm)
	{"11~", KeyF1, ModNone},
	{"12~", KeyF2, ModNone},
	{"13~", KeyF3, ModNone},
	{"14~", KeyF4, ModNone},
	{"15~", KeyF5, ModNone},
	{"17~", KeyF6, ModNone},
	{"18~", KeyF7, ModNone},
	{"19~", KeyF8, ModNone},
	{"20~", KeyF9, ModNone},
	{"21~", KeyF10, ModNone},
	{"23~", KeyF11, ModNone},
	{"24~", KeyF12, ModNone},

	// Function keys (vt style)
	{"[A", KeyF1, ModNone},
	{"[B", KeyF2, ModNone},
	{"[C", KeyF3, ModNone},
	{"[D", KeyF4, ModNone},
	{"[E", KeyF5, ModNone},
}

// SS3 sequences (ESC O ...)
var ss3Sequences = []escapeSequence{
	{"A", KeyUp, ModNone},
	{"B", KeyDown, ModNone},
	{"C", KeyRight, ModNone},
	{"D", KeyLeft, ModNone},
	{"H", KeyHome, ModNone},
	{"F", KeyEnd, ModNone},
	{"P", KeyF1, ModNone},
	{"Q", KeyF2, ModNone},
	{"R", KeyF3, ModNone},
	{"S", KeyF4, ModNone},
	{"M", KeyEnter, ModNone}, // Keypad Enter (application mode)
}

var csiMap = buildSequenceMap(csiSequences)
var ss3Map = buildSequenceMap(ss3Sequences)

func buildSequenceMap(seqs []escapeSequence) map[string]escapeSequence {
	m := make(map[string]escapeSequence, len(seqs))
	for _, s := range seqs {
		m[s.seq] = s
	}
	return m
}

// lookupCSI performs zero-alloc map lookup via compiler optimization
// The string([]byte) conversion inline in map access does not allocate
func lookupCSI(seq []byte) (KeyCode, Modifiers, bool) {
	if s, ok := csiMap[string(seq)]; ok {
		return s.key, s.mod, true
	}
	return KeyNone, ModNone, false
}

// lookupSS3 performs zero-alloc map lookup
func lookupSS3(seq []byte) (KeyCode, Modifiers, bool) {
	if s, ok := ss3Map[string(seq)]; ok {
		return s.key, s.mod, true
	}
	return KeyNone, ModNone, false
}

// Tilde-terminated key numbers (ESC [ N ~ and ESC [ N ; mod ~)
var tildeKeys = map[int]KeyCode{
	1:  KeyHome,
	2:  KeyInsert,
	3:  KeyDelete,
	4:  KeyEnd,
	5:  KeyPageUp,
	6:  KeyPageDown,
	7:  KeyHome,
	8:  KeyEnd,
	11: KeyF1,
	12: KeyF2,
	13: KeyF3,
	14: KeyF4,
	15: KeyF5,
	17: KeyF6,
	18: KeyF7,
	19: KeyF8,
	20: KeyF9,
	21: KeyF10,
	23: KeyF11,
	24: KeyF12,
}

// Final bytes of the xterm modified-key form ESC [ 1 ; mod X
var modifiedFinalKeys = map[byte]KeyCode{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
	'P': KeyF1,
	'Q': KeyF2,
	'R': KeyF3,
	'S': KeyF4,
}

// modifiersFromParam decodes the xterm modifier parameter (1 + bitmask:
// Shift=1, Alt=2, Ctrl=4, Super=8)
func modifiersFromParam(p int) Modifiers {
	if p < 2 {
		return ModNone
	}
	p--
	var mod Modifiers
	if p&1 != 0 {
		mod |= ModShift
	}
	if p&2 != 0 {
		mod |= ModAlt
	}
	if p&4 != 0 {
		mod |= ModCtrl
	}
	if p&8 != 0 {
		mod |= ModSuper
	}
	return mod
}

// parseModifiedCSI decodes the generic xterm modified-key forms not covered
// by the literal table: ESC [ 1 ; mod {A..D,H,F,P..S} and ESC [ N ; mod ~.
// Handles modifier combinations (Super in particular) without enumerating
// every pairing.
func parseModifiedCSI(params []byte, final byte) (KeyCode, Modifiers, bool) {
	p1, p2, ok := splitTwoParams(params)
	if !ok {
		return KeyNone, ModNone, false
	}
	mod := modifiersFromParam(p2)

	if final == '~' {
		if key, ok := tildeKeys[p1]; ok {
			return key, mod, true
		}
		return KeyNone, ModNone, false
	}
	if p1 != 1 {
		return KeyNone, ModNone, false
	}
	if key, ok := modifiedFinalKeys[final]; ok {
		return key, mod, true
	}
	return KeyNone, ModNone, false
}

// splitTwoParams parses "N" or "N;M" from raw parameter bytes
func splitTwoParams(params []byte) (p1, p2 int, ok bool) {
	p2 = 1
	seen := 0
	val := 0
	any := false
	for _, b := range params {
		switch {
		case b >= '0' && b <= '9':
			val = val*10 + int(b-'0')
			if val > 9999 {
				return 0, 0, false
			}
			any = true
		case b == ';':
			if seen > 0 || !any {
				return 0, 0, false
			}
			p1 = val
			seen++
			val = 0
			any = false
		default:
			return 0, 0, false
		}
	}
	if !any {
		return 0, 0, false
	}
	if seen == 0 {
		p1 = val
	} else {
		p2 = val
	}
	return p1, p2, true
}
