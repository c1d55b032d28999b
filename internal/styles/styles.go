package styles

import (
	"os"

	"github.com/muesli/termenv"
)

var (
	stdout = termenv.NewOutput(os.Stdout)
	stderr = termenv.NewOutput(os.Stderr)

	// ERROR styles diagnostics written to stderr. Colour is dropped when
	// stderr is not a terminal.
	ERROR = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("9")).
			String()
	}
	// HINT styles the echo of an expanded history reference.
	HINT = func(s string) string {
		return stderr.String(s).
			Foreground(stderr.Color("244")).
			String()
	}
	STATUS_GOOD = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("10")).
			String()
	}
	STATUS_BAD = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("9")).
			Bold().
			String()
	}
	PROMPT = func(s string) string {
		return stdout.String(s).
			Foreground(stdout.Color("12")).
			String()
	}
)
