package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBusy is returned when a submit or delete is attempted while another
// mutating operation is still outstanding. No request is issued.
var ErrBusy = errors.New("another operation is in progress")

// ValidationError reports input rejected locally: a missing required
// field, an unknown form field, or an invalid/duplicate subject.
// It never reaches the storage layer.
type ValidationError struct {
	Message string
	// Fields maps a field name (JSON name) to a human-readable message.
	// It may be empty when the rejection is not tied to one field.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, ", "))
}

// NewValidationError builds a ValidationError with an optional single
// field detail.
func NewValidationError(message, field, detail string) *ValidationError {
	e := &ValidationError{Message: message}
	if field != "" {
		e.Fields = map[string]string{field: detail}
	}
	return e
}

// RemoteError reports that an operation against the external service
// failed. Op is one of "list", "create", "update", "delete" or "refresh".
// Status is the HTTP status when one was received, 0 otherwise.
type RemoteError struct {
	Op     string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s failed", e.Op)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Err.Error())
}

func (e *RemoteError) Unwrap() error { return e.Err }

// NotFoundError reports a lookup that matched nothing. It is an outcome,
// not a fault.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("student not found: %q", e.Query)
}

// IsValidation, IsRemote and IsNotFound let callers branch on the error
// kind without spelling out errors.As each time.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
