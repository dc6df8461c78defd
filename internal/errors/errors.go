package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain error; the handler layer maps each kind to a
// fixed HTTP status code.
type Kind string

const (
	KindConflict   Kind = "CONFLICT"
	KindAuth       Kind = "AUTH"
	KindForbidden  Kind = "FORBIDDEN"
	KindValidation Kind = "VALIDATION"
	KindNotFound   Kind = "NOT_FOUND"
	KindInternal   Kind = "INTERNAL"
	KindUnavail    Kind = "SERVICE_UNAVAILABLE"
)

// DomainError represents a domain-specific error with a kind, a stable code
// and a message safe to return to clients.
type DomainError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches two domain errors by code so that predeclared errors can be
// compared with errors.Is even after WrapError.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind Kind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewAuthError creates an authentication error. Every token verification
// failure maps to the same 401 at the boundary regardless of the
// underlying cause; the codes stay distinct for internal matching.
func NewAuthError(code, message string) *DomainError {
	return &DomainError{
		Kind:    KindAuth,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Kind:    domainErr.Kind,
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// Signup errors. Empty credentials deliberately share the conflict kind
	// with a taken username: signup rejects all three with 409.
	ErrAccountExists   = NewDomainError(KindConflict, "ACCOUNT_EXISTS", "Account already exists")
	ErrInvalidUsername = NewDomainError(KindConflict, "INVALID_USERNAME", "Invalid username")
	ErrInvalidPassword = NewDomainError(KindConflict, "INVALID_PASSWORD", "Invalid password")

	// Authentication errors
	ErrInvalidCredentials = NewAuthError("INVALID_CREDENTIALS", "incorrect credentials")
	ErrInvalidToken       = NewAuthError("TOKEN_INVALID", "invalid token")
	ErrRefreshScope       = NewAuthError("TOKEN_REFRESH_SCOPE", "refresh tokens may not authenticate requests")
	ErrUnknownScope       = NewAuthError("TOKEN_UNKNOWN_SCOPE", "unrecognized token scope")
	ErrInvalidSubject     = NewAuthError("TOKEN_INVALID_SUBJECT", "invalid subject")
	ErrNoSuchUser         = NewAuthError("AUTH_NO_SUCH_USER", "no such user")
	ErrSessionNotActive   = NewAuthError("SESSION_NOT_ACTIVE", "session not active")
	ErrRefreshMismatch    = NewAuthError("REFRESH_MISMATCH", "refresh token not recognized")

	// Verification errors
	ErrEmailNotVerified     = NewDomainError(KindForbidden, "EMAIL_NOT_VERIFIED", "Email not verified")
	ErrUnknownVerifyToken   = NewDomainError(KindValidation, "INVALID_VERIFICATION_TOKEN", "Invalid verification token")
	ErrUnsupportedFileType  = NewDomainError(KindValidation, "INVALID_FILE_TYPE", "Invalid file type")
	ErrInvalidInput         = NewDomainError(KindValidation, "INVALID_INPUT", "invalid input")

	// Resource errors
	ErrContactNotFound = NewDomainError(KindNotFound, "CONTACT_NOT_FOUND", "Contact not found")
	ErrUserNotFound    = NewDomainError(KindNotFound, "USER_NOT_FOUND", "User not found")

	// System errors
	ErrInternal           = NewDomainError(KindInternal, "INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError(KindUnavail, "SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes.
// This should only be used in the handler/presentation layer.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case KindConflict:
			return http.StatusConflict
		case KindAuth:
			return http.StatusUnauthorized
		case KindForbidden:
			return http.StatusForbidden
		case KindValidation:
			return http.StatusBadRequest
		case KindNotFound:
			return http.StatusNotFound
		case KindUnavail:
			return http.StatusServiceUnavailable
		}
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

// GetErrorMessage safely extracts the client-facing error message. Wrapped
// internals are never exposed.
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return "internal server error"
}
