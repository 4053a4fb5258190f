package errors

import (
	"errors"
	"fmt"
)

// FriendlyError is an error whose message is meant to be shown directly to
// the user, without the surrounding context.
type FriendlyError interface {
	error
	FriendlyMessage() string
}

type friendlyError struct {
	msg string
}

func (err friendlyError) Error() string {
	return err.msg
}

func (err friendlyError) FriendlyMessage() string {
	return err.msg
}

// NewFriendlyError creates an error whose message is printed verbatim by the
// CLI.
func NewFriendlyError(format string, a ...interface{}) error {
	return friendlyError{fmt.Sprintf(format, a...)}
}

type contextError struct {
	context string
	err     error
}

func (err contextError) Error() string {
	return fmt.Sprintf("%s: %s", err.context, err.err)
}

func (err contextError) Unwrap() error {
	return err.err
}

// WithContext annotates err with a short description of what was being done
// when it occurred. A nil err stays nil.
func WithContext(err error, context string) error {
	if err == nil {
		return nil
	}
	return contextError{context, err}
}

// New creates a new error. The arguments are handled like fmt.Sprintf.
func New(format string, a ...interface{}) error {
	if len(a) == 0 {
		return errors.New(format)
	}
	return fmt.Errorf(format, a...)
}

// RootCause returns the innermost error of a chain built with WithContext.
func RootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// GetFriendlyMessage returns the message of the first FriendlyError in the
// chain, if there is one.
func GetFriendlyMessage(err error) (string, bool) {
	var friendly FriendlyError
	if errors.As(err, &friendly) {
		return friendly.FriendlyMessage(), true
	}
	return "", false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
