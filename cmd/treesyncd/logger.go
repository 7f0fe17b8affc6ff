package main

import (
	"fmt"
	"os"

	"github.com/starkandwayne/goutils/ansi"

	"github.com/wayneeseguin/treesync/internal/config"
)

// ansiLogger is the demo binary's config.Logger: it prints through the
// same goutils/ansi markup main.go already uses for dispatcher events,
// filtered by the configured level.
type ansiLogger struct {
	debug bool
}

// newAnsiLogger builds a logger honoring LoggingConfig.Level. Anything
// other than "debug" suppresses Debugf output.
func newAnsiLogger(level string) *ansiLogger {
	return &ansiLogger{debug: level == "debug"}
}

func (l *ansiLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintln(os.Stdout, ansi.Sprintf("@c{[info]}  "+format, args...))
}

func (l *ansiLogger) Warnf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ansi.Sprintf("@Y{[warn]}  "+format, args...))
}

func (l *ansiLogger) Errorf(format string, args ...interface{}) {
	fmt.Fprintln(os.Stderr, ansi.Sprintf("@R{[error]} "+format, args...))
}

func (l *ansiLogger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Fprintln(os.Stdout, ansi.Sprintf("@w{[debug]} "+format, args...))
}

var _ config.Logger = (*ansiLogger)(nil)
