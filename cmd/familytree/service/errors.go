package service

import (
	"errors"
	"fmt"

	"github.com/vanshavali/familytree/common/models"
)

var (
	// ErrInvalidInput means a request body or patch failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials means the email is unknown or the password is wrong
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken means another account already uses the email
	ErrEmailTaken = errors.New("email already registered")

	// ErrNoSession means the token is missing, unknown or expired
	ErrNoSession = errors.New("no active session")

	// ErrParentNotFound means attach_to or parent_id names no member of the caller
	ErrParentNotFound = errors.New("parent member not found")

	// ErrRootExists means a parentless member was requested while a root exists
	ErrRootExists = errors.New("tree already has a root member")

	// ErrHasDescendants means the delete policy refuses to orphan or move the member's children
	ErrHasDescendants = errors.New("member has descendants")

	// ErrRootMove means the root was asked to move under another member
	ErrRootMove = errors.New("root member cannot be attached under another member")
)

// Error is a failure at an operation boundary, tagged with the category
// the user-facing message is chosen by
type Error struct {
	Category models.ErrorCategory
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func fail(category models.ErrorCategory, op string, err error) *Error {
	return &Error{Category: category, Op: op, Err: err}
}

// CategoryOf returns the category of err, or save_failure for untagged errors
func CategoryOf(err error) models.ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return models.CategorySaveFailure
}

// ValidationError lists the fields that failed validation, keyed by json name
type ValidationError struct {
	Fields map[string]string
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d invalid field(s): %v", len(v.Fields), v.Fields)
}

func (v *ValidationError) Unwrap() error {
	return ErrInvalidInput
}
