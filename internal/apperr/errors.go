// Package apperr defines the error taxonomy shared by the store, the services
// and the HTTP adapter.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeItemNotFound        Code = "item_not_found"
	CodeUserNotFound        Code = "user_not_found"
	CodeSelfVoteForbidden   Code = "self_vote_forbidden"
	CodeInvalidReactionKind Code = "invalid_reaction_kind"
	CodeInvalidPageSize     Code = "invalid_page_size"
	CodeInvalidPage         Code = "invalid_page"
	CodeInvalidSortKey      Code = "invalid_sort_key"
	CodeInvalidItem         Code = "invalid_item"
	CodeDuplicateTitle      Code = "duplicate_title"
	CodeConcurrencyConflict Code = "concurrency_conflict"
	CodeStoreUnavailable    Code = "store_unavailable"
)

var (
	ErrItemNotFound        = New(CodeItemNotFound, "item not found")
	ErrUserNotFound        = New(CodeUserNotFound, "user not found")
	ErrSelfVoteForbidden   = New(CodeSelfVoteForbidden, "cannot react to your own item")
	ErrInvalidReactionKind = New(CodeInvalidReactionKind, "reaction must be LIKE or HATE")
	ErrInvalidPageSize     = New(CodeInvalidPageSize, "page size must be positive")
	ErrInvalidPage         = New(CodeInvalidPage, "page must not be negative")
	ErrInvalidSortKey      = New(CodeInvalidSortKey, "unknown sort key")
	ErrInvalidItem         = New(CodeInvalidItem, "invalid item")
	ErrDuplicateTitle      = New(CodeDuplicateTitle, "an item with the same title already exists")
	ErrConcurrencyConflict = New(CodeConcurrencyConflict, "concurrent update, retry")
	ErrStoreUnavailable    = New(CodeStoreUnavailable, "store unavailable")
)

// Error carries a stable code for matching and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same code, so wrapped copies still satisfy
// errors.Is(err, ErrItemNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Code: sentinel.Code, Message: sentinel.Message, Cause: cause}
}

// Wrapf returns a copy of sentinel with a more specific message.
func Wrapf(sentinel *Error, format string, args ...any) *Error {
	return &Error{Code: sentinel.Code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// Retryable reports whether the caller may re-run the whole operation.
func Retryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// HTTPStatus maps an error to the response status used by the handlers.
func HTTPStatus(err error) int {
	code, ok := CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case CodeItemNotFound, CodeUserNotFound:
		return http.StatusNotFound
	case CodeSelfVoteForbidden:
		return http.StatusForbidden
	case CodeInvalidReactionKind, CodeInvalidPageSize, CodeInvalidPage, CodeInvalidSortKey, CodeInvalidItem:
		return http.StatusBadRequest
	case CodeDuplicateTitle, CodeConcurrencyConflict:
		return http.StatusConflict
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
