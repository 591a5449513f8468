package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gen2brain/beeep"
)

// alertHook allows tests to override the desktop alert.
var alertHook = func(title, message string) error {
	return beeep.Alert(title, message, "")
}

const timestampLayout = "2006-01-02 03:04 PM"

// Local raises a desktop alert with sound and prints a timestamped line.
type Local struct {
	out io.Writer
	now func() time.Time
}

// NewLocal returns a Local notifier printing to out, or stdout when out is nil.
func NewLocal(out io.Writer) *Local {
	if out == nil {
		out = os.Stdout
	}
	return &Local{out: out, now: time.Now}
}

// Name returns the notifier backend name.
func (l *Local) Name() string { return "local" }

// OnStatusChange alerts the desktop with the sanitized status.
func (l *Local) OnStatusChange(_ context.Context, status string) error {
	if err := alertHook(AlertTitle, Sanitize(status)); err != nil {
		return fmt.Errorf("desktop alert: %w", err)
	}
	_, err := fmt.Fprintf(l.out, "[%s] %s: %s\n", l.now().Format(timestampLayout), AlertTitle, status)
	return err
}

// Sanitize drops every character that is not an ASCII letter, digit, '.', ',' or space.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == ',', r == ' ':
			return r
		}
		return -1
	}, s)
}
