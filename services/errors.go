// path: services/errors.go
package services

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure for the caller.
type Kind string

const (
	KindPrecondition        Kind = "precondition"
	KindPermission          Kind = "permission"
	KindLocationUnavailable Kind = "location_unavailable"
	KindUnauthenticated     Kind = "unauthenticated"
	KindGeofence            Kind = "geofence"
	KindUpload              Kind = "upload"
	KindWriteConflict       Kind = "write_conflict"
	KindUnknown             Kind = "unknown"
)

// Error is returned by every workflow operation. Message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	// DistanceMeters is set for KindGeofence, rounded to the nearest meter.
	DistanceMeters int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same request can succeed without
// the user changing anything.
func (e *Error) Retryable() bool { return e.Kind == KindUpload }

// KindOf returns the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func precondition(msg string) *Error { return &Error{Kind: KindPrecondition, Message: msg} }

func unknown(msg string, err error) *Error {
	return &Error{Kind: KindUnknown, Message: msg, Err: err}
}

var (
	ErrNoEvidence       = precondition("take at least one before or after photo")
	ErrReportNotFound   = precondition("report not found")
	ErrAccountNotFound  = precondition("account not found")
	ErrAlreadyCleaned   = precondition("this spot has already been cleaned")
	ErrNotSignedIn      = &Error{Kind: KindUnauthenticated, Message: "sign in to continue"}
	ErrLocationDenied   = &Error{Kind: KindPermission, Message: "allow location access to continue"}
	ErrCleanedElsewhere = &Error{Kind: KindWriteConflict, Message: "already cleaned by someone else"}
)
