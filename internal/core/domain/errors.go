package domain

import (
	"errors"
	"fmt"
)

// Local failures. Routed to the failed terminal state with an annotation;
// they never crash the watcher.
var (
	ErrMalformedSubmission  = errors.New("malformed submission")
	ErrMissingMedia         = errors.New("missing media")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// ErrAuthentication means the token provider could not supply usable
// credentials or an author identity.
var ErrAuthentication = errors.New("authentication failed")

// PlatformError is a non-success HTTP status from the remote platform.
// Body carries the raw error response for the annotation and the ledger.
type PlatformError struct {
	StatusCode int
	Body       string
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("platform rejected request: status %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps a network-level failure before any HTTP status
// was received.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failed during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UploadPhase identifies which leg of the two-phase asset protocol failed.
type UploadPhase string

const (
	UploadPhaseRegister UploadPhase = "register"
	UploadPhaseTransfer UploadPhase = "transfer"
)

// UploadError is a failure from the media upload protocol.
type UploadError struct {
	Phase UploadPhase
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed: %v", e.Phase, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }
