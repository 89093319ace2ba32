// @focus: #sys { term } #input { raw }
// Package rawterm provides raw-mode terminal control and structured input
// decoding on top of the platform's native console primitives.
//
// Features:
//   - Raw mode entry/exit with exact attribute restoration
//   - Poll-based input reading with caller-supplied timeouts
//   - Stateful escape sequence decoding (CSI, SS3, OSC/DCS, bracketed paste)
//   - Kitty keyboard protocol (CSI-u) decoding and canonical encoding
//   - SIGWINCH resize detection on Unix, console records on Windows
//   - Clean terminal restoration on exit/panic
//
// This package bypasses terminfo/termcap entirely, decoding the de facto
// xterm sequence set directly. Target environments: Linux, macOS, BSDs with
// xterm-compatible terminals, and the Windows console.
package rawterm
