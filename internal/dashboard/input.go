package dashboard

import (
	"fmt"

	"github.com/mattn/go-tty"
)

// InputReader wraps a raw-mode terminal, decoding arrow-key escape
// sequences into the keyLeft/keyRight sentinels HandleKey expects,
// grounded on joeycumines-go-utilpkg/prompt's WindowsReader
// (tty.Open/ReadRune lifecycle), generalized to the POSIX path go-tty
// itself already handles internally.
type InputReader struct {
	tty *tty.TTY
}

// OpenInput puts the controlling terminal into raw mode. Terminal
// unavailability is a DashboardInitFailure (spec.md §7): fail fast.
func OpenInput() (*InputReader, error) {
	t, err := tty.Open()
	if err != nil {
		return nil, fmt.Errorf("dashboard: open terminal: %w", err)
	}
	return &InputReader{tty: t}, nil
}

// Close restores the terminal's original mode.
func (r *InputReader) Close() error { return r.tty.Close() }

// ReadKey blocks for the next keystroke, decoding a 3-byte arrow escape
// sequence (ESC '[' 'C'/'D') into keyRight/keyLeft.
func (r *InputReader) ReadKey() (rune, error) {
	c, err := r.tty.ReadRune()
	if err != nil {
		return 0, err
	}
	if c != 0x1b {
		return c, nil
	}
	c2, err := r.tty.ReadRune()
	if err != nil || c2 != '[' {
		return c, nil
	}
	c3, err := r.tty.ReadRune()
	if err != nil {
		return c, nil
	}
	switch c3 {
	case 'C':
		return keyRight, nil
	case 'D':
		return keyLeft, nil
	default:
		return c3, nil
	}
}

// Run reads keys until state requests shutdown or the reader errors,
// applying each to state (spec.md §4.9/§4.10). Intended to run on its
// own goroutine (spec.md §5: one thread for keyboard input).
func (r *InputReader) Run(state *State) error {
	for {
		key, err := r.ReadKey()
		if err != nil {
			return err
		}
		if state.HandleKey(key) && state.ShouldExit() {
			return nil
		}
	}
}
