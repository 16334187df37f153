package auth

import (
	"errors"
	"fmt"

	apperrors "github.com/kbukum/todoapi/errors"
)

// Reason says why authentication failed. It is logged and counted, never
// sent to the client.
type Reason string

const (
	ReasonMissingToken    Reason = "missing_token"
	ReasonMalformedHeader Reason = "malformed_header"
	ReasonExpired         Reason = "expired"
	ReasonInvalid         Reason = "invalid_token"
	ReasonMissingSubject  Reason = "missing_subject"
	ReasonUserNotFound    Reason = "user_not_found"
	ReasonInactive        Reason = "inactive_user"
)

var (
	// ErrUnauthenticated matches every *AuthError.
	ErrUnauthenticated = errors.New("auth: unauthenticated")

	// ErrLookupFailed matches every *LookupError.
	ErrLookupFailed = errors.New("auth: principal lookup failed")
)

// AuthError is an authentication failure attributable to the request.
type AuthError struct {
	Reason Reason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + string(e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUnauthenticated) true.
func (e *AuthError) Is(target error) bool { return target == ErrUnauthenticated }

// LookupError means the principal store failed. It is a server error, not
// an authentication failure.
type LookupError struct {
	Subject string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("auth: lookup subject %q: %v", e.Subject, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLookupFailed) true.
func (e *LookupError) Is(target error) bool { return target == ErrLookupFailed }

// HTTPError maps an Authenticate error to the response the client sees.
func HTTPError(err error) *apperrors.AppError {
	var authErr *AuthError
	var lookupErr *LookupError
	switch {
	case errors.As(err, &authErr):
		switch authErr.Reason {
		case ReasonExpired:
			return apperrors.TokenExpired()
		case ReasonMissingToken:
			return apperrors.Unauthorized("")
		default:
			return apperrors.InvalidToken()
		}
	case errors.As(err, &lookupErr):
		return apperrors.DatabaseError(lookupErr.Err)
	default:
		return apperrors.From(err)
	}
}
