package recording

import (
	"errors"
	"fmt"
	"strings"
)

// Recorder error codes. 38 is what the device reports when the requested
// encoder, format or audio source cannot be used with the chosen settings.
const (
	CodeGeneric             = 1
	CodeUnsupportedSettings = 38
)

var (
	ErrBusy          = errors.New("recorder is busy")
	ErrNotConfigured = errors.New("recorder was not configured")
	ErrNotRecording  = errors.New("no recording in progress")
)

// Error is a failure reported by the recorder after a session started.
type Error struct {
	Code   int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("recorder error %d: %s", e.Code, e.Reason)
}

// Unsupported reports whether the settings were rejected by the device.
func (e *Error) Unsupported() bool {
	return e.Code == CodeUnsupportedSettings
}

// ffmpeg messages meaning the settings do not fit this machine.
var unsupportedMarkers = []string{
	"Unknown encoder",
	"Could not open encoder",
	"Error while opening encoder",
	"Invalid argument",
	"not supported",
	"Device or resource busy",
	"Unrecognized option",
	"Cannot open display",
	"Could not find audio only device",
}

// classifyFailure turns ffmpeg's exit status and the tail of its stderr
// into an Error.
func classifyFailure(stderr string, exitCode int) *Error {
	reason := lastLines(stderr, 3)
	if reason == "" {
		reason = fmt.Sprintf("ffmpeg exited with status %d", exitCode)
	}

	for _, marker := range unsupportedMarkers {
		if strings.Contains(stderr, marker) {
			return &Error{Code: CodeUnsupportedSettings, Reason: reason}
		}
	}

	code := exitCode
	if code == 0 || code == CodeUnsupportedSettings {
		code = CodeGeneric
	}
	return &Error{Code: code, Reason: reason}
}

func lastLines(s string, n int) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
