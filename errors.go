package fieldchat

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for formatting, parsing, exchange and registry operations.
// All use prefix "fieldchat:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrProtocolMismatch = errors.New("fieldchat: completion fields do not match signature output fields")
	ErrMediaEncoding    = errors.New("fieldchat: media value could not be encoded")
	ErrInvalidSignature = errors.New("fieldchat: signature is invalid")
	ErrNilSignature     = errors.New("fieldchat: signature must not be nil")
	ErrNilTask          = errors.New("fieldchat: task must not be nil")
	ErrNilModel         = errors.New("fieldchat: model must not be nil")
	ErrClosedCompletion = errors.New("fieldchat: model completion channel closed without a result")
	ErrTaskNotFound     = errors.New("fieldchat: task not found in registry")
	ErrInvalidManifest  = errors.New("fieldchat: manifest file is malformed")
	ErrInvalidName      = errors.New("fieldchat: invalid task name or environment")
	ErrInvalidPayload   = errors.New("fieldchat: payload struct is invalid or missing field tags")
)

// MismatchError reports a completion whose recovered fields differ from the declared output fields.
// Use errors.Is(err, ErrProtocolMismatch) and errors.As(err, &mismatchErr) to inspect.
type MismatchError struct {
	Adapter  string   // name of the adapter that parsed the completion
	Expected []string // declared output fields, in signature order
	Actual   []string // recovered fields: completion order from the chat parser, sorted otherwise
	Raw      string   // the completion as returned by the model
	Err      error    // optional cause (e.g. JSON syntax error); nil for plain key mismatches
}

// Error implements error.
func (e *MismatchError) Error() string {
	msg := fmt.Sprintf("fieldchat: %s: expected fields [%s] but got [%s]",
		e.Adapter, strings.Join(e.Expected, ", "), strings.Join(e.Actual, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns ErrProtocolMismatch and the optional cause.
func (e *MismatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProtocolMismatch}
	}
	return []error{ErrProtocolMismatch, e.Err}
}

// MediaError wraps a media encoding failure with the offending field name.
type MediaError struct {
	Field string
	Err   error
}

// Error implements error.
func (e *MediaError) Error() string {
	return fmt.Sprintf("fieldchat: media field %q: %v", e.Field, e.Err)
}

// Unwrap returns ErrMediaEncoding and the underlying cause.
func (e *MediaError) Unwrap() []error {
	return []error{ErrMediaEncoding, e.Err}
}

// Compile-time checks.
var (
	_ error = (*MismatchError)(nil)
	_ error = (*MediaError)(nil)
)
