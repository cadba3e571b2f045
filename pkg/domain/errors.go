package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Authoring errors.
var (
	// ErrDuplicateID is returned when a node id is already present in the graph or store.
	ErrDuplicateID = errors.New("duplicate node id")

	// ErrNodeNotFound is returned when a node id cannot be found.
	ErrNodeNotFound = errors.New("node not found")

	// ErrProtectedNode is returned when trying to delete welcome_node or show_form.
	ErrProtectedNode = errors.New("protected node")

	// ErrValidation is the sentinel matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// Runtime errors.
var (
	// ErrRequestInFlight is returned when an interaction is submitted while another one is resolving.
	ErrRequestInFlight = errors.New("request already in flight")

	// ErrSessionClosed is returned for any action on a closed widget session.
	ErrSessionClosed = errors.New("session closed")

	// ErrNotInFormMode is returned when form actions are used outside of form mode.
	ErrNotInFormMode = errors.New("session is not in form mode")

	// ErrInputSuppressed is returned when chat input is used while the lead form is shown.
	ErrInputSuppressed = errors.New("chat input is suppressed in form mode")

	// ErrResolution is the sentinel matched by every ResolutionError.
	ErrResolution = errors.New("resolution failed")

	// ErrNetwork signals a transport failure talking to the resolver or the submissions service.
	ErrNetwork = errors.New("network error")

	// ErrMalformedResponse is returned when a resolver answers with an unknown shape.
	ErrMalformedResponse = errors.New("malformed response")
)

// ValidationError describes a missing or invalid input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ValidationErrors aggregates several field errors.
type ValidationErrors []*ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (errs ValidationErrors) Is(target error) bool {
	return target == ErrValidation && len(errs) > 0
}

// Fields returns the names of the offending fields in order.
func (errs ValidationErrors) Fields() []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

// ResolutionError wraps a failed resolution. Dangling option payloads surface here
// at traversal time, typically with StatusCode 404.
type ResolutionError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *ResolutionError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("resolution failed (status %d): %v", e.StatusCode, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("resolution failed: %v", e.Cause)
	case e.Message != "":
		return fmt.Sprintf("resolution failed (status %d): %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("resolution failed (status %d)", e.StatusCode)
	}
}

func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolution
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}
