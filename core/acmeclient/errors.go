package acmeclient

import (
	"errors"
	"fmt"
)

// ErrNoAccount is returned when the CA reports no account exists for the
// bound key.
var ErrNoAccount = errors.New("acme account does not exist")

// ProtocolError carries the CA's machine-readable problem document for a
// rejected request: the urn problem type, human detail, and HTTP status.
// Callers translate these into domain-context messages.
type ProtocolError struct {
	Operation  string
	Type       string
	Detail     string
	StatusCode int

	err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: CA rejected request (%s, status %d): %s",
		e.Operation, e.Type, e.StatusCode, e.Detail)
}

func (e *ProtocolError) Unwrap() error {
	return e.err
}
