package remote

import (
	"errors"
	"fmt"
)

// Code classifies a store failure. The engine's retry policy keys off the
// code, not the message: transient codes are retried up to a bound, the
// rest surface to the caller immediately.
type Code int

const (
	// CodeUnknown is an unclassified failure, treated as terminal.
	CodeUnknown Code = iota

	// Transient codes. The operation may succeed if repeated.

	// CodeNetworkUnavailable means the store could not be reached.
	CodeNetworkUnavailable
	// CodeZoneUnavailable means the zone does not exist or is not ready.
	CodeZoneUnavailable
	// CodeUnknownItem means the record vanished mid-operation.
	CodeUnknownItem
	// CodeConflict means the remote value changed since it was read.
	CodeConflict
	// CodeQueryFailed means a fetch query failed at the transport level.
	CodeQueryFailed

	// Terminal codes. Retrying cannot help; surface to the user.

	// CodeNotAuthenticated means no usable account credentials exist.
	CodeNotAuthenticated
	// CodePermissionDenied means the account may not touch the zone.
	CodePermissionDenied
	// CodeQuotaExceeded means the account is out of storage quota.
	CodeQuotaExceeded
	// CodeRejected means the server refused the request as malformed.
	CodeRejected
	// CodeAccountUnavailable means the account is restricted or disabled.
	CodeAccountUnavailable
	// CodeShareFailed means creating a zone share failed.
	CodeShareFailed
)

// String returns a stable machine-readable name for the code.
func (c Code) String() string {
	switch c {
	case CodeNetworkUnavailable:
		return "network_unavailable"
	case CodeZoneUnavailable:
		return "zone_unavailable"
	case CodeUnknownItem:
		return "unknown_item"
	case CodeConflict:
		return "conflict"
	case CodeQueryFailed:
		return "query_failed"
	case CodeNotAuthenticated:
		return "not_authenticated"
	case CodePermissionDenied:
		return "permission_denied"
	case CodeQuotaExceeded:
		return "quota_exceeded"
	case CodeRejected:
		return "rejected"
	case CodeAccountUnavailable:
		return "account_unavailable"
	case CodeShareFailed:
		return "share_failed"
	default:
		return "unknown"
	}
}

// Error is a classified store failure.
type Error struct {
	// Code is the machine-distinguishable cause.
	Code Code
	// Op is the store operation that failed (query, create, update, ...).
	Op string
	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s: %s: %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("remote %s: %s", e.Op, e.Code)
}

// Unwrap returns the underlying transport error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified store error.
func NewError(code Code, op string, err error) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// ErrorCode extracts the classification from err. Errors that are not a
// *remote.Error report CodeUnknown.
func ErrorCode(err error) Code {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeUnknown
}

// Transient reports whether err is worth retrying: the record store was
// unreachable, the zone was missing, the record vanished mid-flight, or a
// concurrent writer won a conflict. Everything else is terminal.
func Transient(err error) bool {
	switch ErrorCode(err) {
	case CodeNetworkUnavailable, CodeZoneUnavailable, CodeUnknownItem, CodeConflict, CodeQueryFailed:
		return true
	default:
		return false
	}
}
