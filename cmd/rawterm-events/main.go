// rawterm-events prints the decoded input event stream, one line per event.
// Useful for checking what sequences a terminal actually sends.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/rawterm"
)

type options struct {
	Config  string `short:"c" long:"config" description:"path to a rawterm TOML config"`
	Paste   bool   `short:"p" long:"paste" description:"enable bracketed paste"`
	Focus   bool   `short:"f" long:"focus" description:"enable focus reporting"`
	Kitty   bool   `short:"k" long:"kitty" description:"push kitty keyboard flags"`
	Timeout int    `short:"t" long:"timeout" default:"0" description:"exit after N seconds without input (0 = never)"`
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flags.WroteHelp(err) {
			return 0
		}
		return 2
	}

	var cfg rawterm.Options
	var err error
	if opts.Config != "" {
		cfg, err = rawterm.LoadOptionsFrom(opts.Config)
	} else {
		cfg, err = rawterm.LoadOptions()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "rawterm-events:", err)
		return 1
	}
	cfg.BracketedPaste = cfg.BracketedPaste || opts.Paste
	cfg.FocusReporting = cfg.FocusReporting || opts.Focus
	cfg.KittyKeyboard = cfg.KittyKeyboard || opts.Kitty

	sess, err := rawterm.NewSession(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rawterm-events:", err)
		return 1
	}
	defer sess.Close()

	if w, h, err := sess.Size(); err == nil {
		fmt.Printf("terminal %dx%d, press q or Ctrl+C to quit\n", w, h)
	}

	idle := time.Duration(opts.Timeout) * time.Second
	for {
		wait := time.Duration(-1)
		if idle > 0 {
			wait = idle
		}
		ev, err := sess.NextEvent(wait)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rawterm-events: %v\n", err)
			return 1
		}

		switch ev.Type {
		case rawterm.EventNone:
			fmt.Printf("idle for %s, exiting\n", idle)
			return 0
		case rawterm.EventKey:
			fmt.Printf("key    %s\n", formatKey(ev))
			if ev.Key == rawterm.KeyRune && ev.Rune == 'q' && ev.Modifiers == rawterm.ModNone {
				return 0
			}
			if ev.Key == rawterm.KeyRune && ev.Rune == 'c' && ev.Modifiers == rawterm.ModCtrl {
				return 0
			}
		case rawterm.EventResize:
			fmt.Printf("resize %dx%d\n", ev.Width, ev.Height)
		case rawterm.EventFocus:
			state := "lost"
			if ev.Focused {
				state = "gained"
			}
			fmt.Printf("focus  %s\n", state)
		case rawterm.EventPaste:
			fmt.Printf("paste  %d bytes: %s\n", len(ev.Text), preview(ev.Text, 48))
		case rawterm.EventUnknown:
			fmt.Printf("seq    %q\n", ev.Raw)
		}
	}
}

func formatKey(ev rawterm.Event) string {
	name := ev.Key.String()
	if ev.Key == rawterm.KeyRune {
		name = fmt.Sprintf("%q", ev.Rune)
	}
	if m := ev.Modifiers.String(); m != "" {
		return m + "+" + name
	}
	return name
}

// preview renders pasted text on a single line, truncated to a display width
func preview(s string, width int) string {
	r := []rune(s)
	for i, c := range r {
		if c < 0x20 || c == 0x7f {
			r[i] = '·'
		}
	}
	return runewidth.Truncate(string(r), width, "…")
}
