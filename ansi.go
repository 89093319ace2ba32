// @focus: #terminal { ansi }
package rawterm

import "io"

// Pre-allocated control sequence fragments
var (
	csiSGR0       = []byte("\x1b[0m")
	csiCursorShow = []byte("\x1b[?25h")
	// DECAWM: Auto-Wrap Mode
	csiAutoWrapOn = []byte("\x1b[?7h")

	// Input protocol modes
	csiPasteOn  = []byte("\x1b[?2004h")
	csiPasteOff = []byte("\x1b[?2004l")
	csiFocusOn  = []byte("\x1b[?1004h")
	csiFocusOff = []byte("\x1b[?1004l")

	// Kitty keyboard: push disambiguation flags / pop
	csiKittyPush = []byte("\x1b[>1u")
	csiKittyPop  = []byte("\x1b[<u")
)

// seqReset nudges a wedged terminal back toward a usable state without
// clearing the screen
var seqReset = joinSeqs(csiPasteOff, csiFocusOff, csiKittyPop, csiCursorShow, csiSGR0, csiAutoWrapOn)

func joinSeqs(seqs ...[]byte) []byte {
	var out []byte
	for _, s := range seqs {
		out = append(out, s...)
	}
	return out
}

// EmergencyReset writes an unconditional terminal restore sequence.
// Intended for panic handlers where session state may be inconsistent.
func EmergencyReset(w io.Writer) {
	w.Write(seqReset)
	resetTerminalMode()
}
