package util

import "errors"

var (
	// ErrUnsupported marks an audio container no header reader understands.
	// Such files are never retried.
	ErrUnsupported = errors.New("unsupported audio format")

	// ErrCorrupt marks an audio header or a table that exists but cannot be
	// parsed (truncated RIFF chunk, bad FLAC STREAMINFO, empty CSV)
	ErrCorrupt = errors.New("corrupt data")

	// ErrNotFound marks a missing input the pipeline cannot run without,
	// such as the solar reference table or the audio directory
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig marks a config value that fails validation
	ErrInvalidConfig = errors.New("invalid configuration")
)
