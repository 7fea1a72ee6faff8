package ease

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedPlatform is returned by Launch when the native port is used
// outside Windows.
var ErrUnsupportedPlatform = errors.New("vendor application automation requires windows")

// ProtocolError is a stage-aware automation failure with optional window
// context.
type ProtocolError struct {
	Stage   string
	Speaker string
	Message string
	// Tried lists window titles examined before giving up, populated for
	// view identification failures.
	Tried []string
	Err   error
}

// Error formats protocol failures for logs.
func (e *ProtocolError) Error() string {
	if e == nil {
		return ""
	}
	msg := fmt.Sprintf("%s: %s: %s", e.Stage, e.Speaker, e.Message)
	if len(e.Tried) > 0 {
		msg += fmt.Sprintf(" (tried windows: %s)", strings.Join(e.Tried, ", "))
	}
	return msg
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *ProtocolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
