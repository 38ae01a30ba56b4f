package ai

import (
	"errors"
	"fmt"

	"github.com/mpresser/tailorbot/internal/utils"
)

// ErrEmptyResponse marks a model reply that carried no usable text. It is
// retried with the same budget as a transport failure.
var ErrEmptyResponse = errors.New("model returned an empty response")

// rawPreviewLimit caps how much raw model output a FormatError carries.
const rawPreviewLimit = 200

// InputError reports required caller input that was empty or missing. It is
// raised before any network call is made.
type InputError struct {
	Field string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// FormatError reports model output that violated the structural contract.
// It is never retried. Raw holds a truncated preview of the offending
// response for diagnostics.
type FormatError struct {
	Reason string
	Raw    string
}

// NewFormatError builds a FormatError, truncating the raw response so error
// messages and logs stay bounded.
func NewFormatError(reason, raw string) *FormatError {
	return &FormatError{
		Reason: reason,
		Raw:    utils.TruncateForLog(raw, rawPreviewLimit),
	}
}

func (e *FormatError) Error() string {
	if e.Raw == "" {
		return fmt.Sprintf("malformed model response: %s", e.Reason)
	}
	return fmt.Sprintf("malformed model response: %s (raw: %q)", e.Reason, e.Raw)
}

// RetryError aggregates an exhausted retry loop into a single failure. It
// reports the attempt count and wraps the last underlying cause, so callers
// can decide what to do without inspecting per-attempt detail.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("model call failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error {
	return e.Last
}
