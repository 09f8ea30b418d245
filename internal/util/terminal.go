package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal checks if the given file descriptor is a terminal
func IsTerminal(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// ShowProgress reports whether an interactive progress bar should be drawn:
// stderr must be a terminal and the logger must not be in quiet mode.
func ShowProgress(log *Logger) bool {
	if log.Level() > LevelInfo {
		return false
	}
	return IsTerminal(os.Stderr.Fd())
}
