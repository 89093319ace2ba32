package rawterm

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Options configures a Session
type Options struct {
	// EscapeTimeout is the lone-ESC disambiguation wait. Zero selects
	// DefaultEscapeTimeout.
	EscapeTimeout time.Duration

	// BracketedPaste enables paste markers on the terminal for the life of
	// the session, surfacing pastes as a single EventPaste.
	BracketedPaste bool

	// FocusReporting enables focus in/out reports (EventFocus).
	FocusReporting bool

	// KittyKeyboard pushes the kitty keyboard disambiguation flag on the
	// terminal. CSI-u sequences are decoded regardless of this setting.
	KittyKeyboard bool

	// RetryOnInterrupt transparently retries reads interrupted by signals.
	RetryOnInterrupt bool

	// Input and Output default to stdin and stdout.
	Input  *os.File
	Output *os.File
}

// DefaultOptions returns the baseline configuration
func DefaultOptions() Options {
	return Options{
		EscapeTimeout:    DefaultEscapeTimeout,
		RetryOnInterrupt: true,
		Input:            os.Stdin,
		Output:           os.Stdout,
	}
}

// fileOptions is the TOML schema of the optional user config. Pointer
// fields distinguish "absent" from "false".
type fileOptions struct {
	EscapeTimeout    string `toml:"escape_timeout"`
	BracketedPaste   *bool  `toml:"bracketed_paste"`
	FocusReporting   *bool  `toml:"focus_reporting"`
	KittyKeyboard    *bool  `toml:"kitty_keyboard"`
	RetryOnInterrupt *bool  `toml:"retry_on_interrupt"`
}

// ConfigPath returns the user config location, honoring XDG_CONFIG_HOME
func ConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "rawterm", "rawterm.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rawterm", "rawterm.toml")
}

// LoadOptions returns DefaultOptions overlaid with the user config file.
// A missing file is not an error.
func LoadOptions() (Options, error) {
	opts := DefaultOptions()
	path := ConfigPath()
	if path == "" {
		return opts, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return opts, nil
	}
	err := overlayOptions(&opts, path)
	return opts, err
}

// LoadOptionsFrom overlays a specific TOML file onto the defaults
func LoadOptionsFrom(path string) (Options, error) {
	opts := DefaultOptions()
	err := overlayOptions(&opts, path)
	return opts, err
}

func overlayOptions(opts *Options, path string) error {
	var fo fileOptions
	if _, err := toml.DecodeFile(path, &fo); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	if fo.EscapeTimeout != "" {
		d, err := time.ParseDuration(fo.EscapeTimeout)
		if err != nil {
			return errors.Wrap(err, "escape_timeout")
		}
		opts.EscapeTimeout = d
	}
	if fo.BracketedPaste != nil {
		opts.BracketedPaste = *fo.BracketedPaste
	}
	if fo.FocusReporting != nil {
		opts.FocusReporting = *fo.FocusReporting
	}
	if fo.KittyKeyboard != nil {
		opts.KittyKeyboard = *fo.KittyKeyboard
	}
	if fo.RetryOnInterrupt != nil {
		opts.RetryOnInterrupt = *fo.RetryOnInterrupt
	}
	return nil
}
