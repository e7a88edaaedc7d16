package playback

import (
	"errors"
	"fmt"
)

// ErrModeConflict is the cause of intents rejected because of the current
// display mode, such as upscaling while an overlay is shown.
var ErrModeConflict = errors.New("mode conflict")

// Error is an operator-facing failure of one intent or tick.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	CodeCameraUnavailable = "CAMERA_UNAVAILABLE"
	CodeMicUnavailable    = "MIC_UNAVAILABLE"
	CodeModeConflict      = "MODE_CONFLICT"
	CodeResolution        = "RESOLUTION_FAILED"
	CodeCompose           = "COMPOSE_FAILED"
	CodePresent           = "PRESENT_FAILED"
	CodeInvalidIntent     = "INVALID_INTENT"
)

// NewError creates a new playback error
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
