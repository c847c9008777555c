package domain

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials means the mailbox credentials are absent or
// rejected. Nothing works until the configuration is fixed.
var ErrMissingCredentials = errors.New("missing imap credentials")

// ErrDomainNotAllowed means the requested recipient's domain is outside
// the configured allow list.
var ErrDomainNotAllowed = errors.New("email domain is not allowed")

// ErrNotAuthorizedInbox means the query targets a recipient other than
// the single inbox this deployment is restricted to serving.
var ErrNotAuthorizedInbox = errors.New("codes are only available for the authorized inbox")

// ValidationError rejects malformed input on the read path before any
// mailbox or store access.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// TransportError wraps a mailbox connection failure. The connection
// manager marks the session stale when one occurs.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("imap %s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// StorageError wraps a record store failure. Surfaced to read-path
// callers, swallowed and logged on the sync path.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }
