package errors

import (
	"errors"
	"fmt"
)

// New returns an error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// withContext annotates an error with a short description of what was being
// done when the error occurred. The context should be a lowercase verb
// phrase, e.g. "read index".
type withContext struct {
	context string
	err     error
}

// WithContext wraps `err` with `context`. It returns nil if `err` is nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return withContext{context: context, err: err}
}

func (err withContext) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err withContext) Unwrap() error {
	return err.err
}

// RootCause returns the innermost error wrapped by WithContext.
func RootCause(err error) error {
	for {
		wrapped, ok := err.(withContext)
		if !ok {
			return err
		}
		err = wrapped.err
	}
}

// FriendlyError is an error whose message is meant to be shown directly to
// the user, without the context chain that led to it.
type FriendlyError struct {
	template string
	args     []interface{}
}

// NewFriendlyError creates a FriendlyError. The template and args are
// formatted with fmt.Sprintf.
func NewFriendlyError(template string, args ...interface{}) error {
	return FriendlyError{template: template, args: args}
}

func (err FriendlyError) Error() string {
	return err.FriendlyMessage()
}

// FriendlyMessage returns the user-facing message.
func (err FriendlyError) FriendlyMessage() string {
	return fmt.Sprintf(err.template, err.args...)
}

type friendlyError interface {
	FriendlyMessage() string
}

// GetFriendlyMessage returns the message of the first friendly error in the
// context chain of `err`.
func GetFriendlyMessage(err error) (string, bool) {
	for err != nil {
		if friendly, ok := err.(friendlyError); ok {
			return friendly.FriendlyMessage(), true
		}

		wrapped, ok := err.(withContext)
		if !ok {
			return "", false
		}
		err = wrapped.err
	}
	return "", false
}
