package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable machine-readable failure category. Every error that
// crosses the API boundary carries exactly one kind; handlers map kinds to
// HTTP statuses without parsing message text.
type ErrorKind string

const (
	// Credential errors. Never retried; the credential value itself must
	// never appear in the message.
	KindCredentialNotFound ErrorKind = "credential_not_found"
	KindCredentialDenied   ErrorKind = "credential_denied"

	KindTenantNotFound ErrorKind = "tenant_not_found"

	// Upstream transient errors, eligible for bounded retry at the
	// reporting-client boundary only.
	KindUpstreamRateLimited ErrorKind = "upstream_rate_limited"
	KindUpstreamTimeout     ErrorKind = "upstream_timeout"

	// Upstream semantic errors, surfaced immediately.
	KindUpstreamAuth    ErrorKind = "upstream_auth"
	KindUpstreamInvalid ErrorKind = "upstream_invalid"

	KindBadRequest ErrorKind = "bad_request"
	KindInternal   ErrorKind = "internal"
)

// Error pairs an ErrorKind with a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// E constructs a kinded error. The cause is optional.
func E(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Ef constructs a kinded error with a formatted message and no cause.
func Ef(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error chain. Unrecognized errors are
// classified as internal.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// PublicMessage returns the message safe to echo to API consumers. Internal
// errors get a generic message; everything else is user-addressable.
func PublicMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Message
	}
	return "an internal error occurred"
}
