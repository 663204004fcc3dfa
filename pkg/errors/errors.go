package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

var (
	ErrInvalidCredentials      = errors.New("incorrect email or password")
	ErrInvalidToken            = errors.New("invalid or expired token")
	ErrNotLoggedIn             = errors.New("you are not logged in! Please log in to get access")
	ErrTokenUserGone           = errors.New("the user belonging to this token does no longer exist")
	ErrStaleToken              = errors.New("user recently changed password! Please log in again")
	ErrInsufficientPermissions = errors.New("you do not have permission to perform this action")
)

type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message, Err: err}
}

func NewAuthenticationError(message string, err error) *AppError {
	return &AppError{Kind: KindAuthentication, Code: "AUTHENTICATION_ERROR", Message: message, Err: err}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Code: "AUTHORIZATION_ERROR", Message: message}
}

func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Kind: KindNotFound, Code: "NOT_FOUND", Message: message, Err: err}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{Kind: KindConflict, Code: "CONFLICT", Message: message, Err: err}
}

func NewInternalError(message string, err error) *AppError {
	return &AppError{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

// KindOf reports the kind of the first AppError in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return KindInternal, false
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
