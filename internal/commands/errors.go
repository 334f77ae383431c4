package commands

import (
	"errors"
	"fmt"

	"corelab/pkg/coretypes"
)

// CommandError is the only error shape that leaves the command layer.
// Kind is one of the coretypes.Kind strings and is stable across releases.
type CommandError struct {
	Kind    coretypes.Kind `json:"kind" yaml:"kind"`
	Message string         `json:"message" yaml:"message"`

	err error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *CommandError) Unwrap() error {
	return e.err
}

// AsCommandError converts err into a *CommandError. A nil error stays nil and
// an existing *CommandError is returned unchanged.
func AsCommandError(err error) *CommandError {
	if err == nil {
		return nil
	}
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce
	}
	return &CommandError{Kind: coretypes.KindOf(err), Message: err.Error(), err: err}
}

func validationError(format string, args ...any) *CommandError {
	msg := fmt.Sprintf(format, args...)
	return &CommandError{
		Kind:    coretypes.KindValidation,
		Message: msg,
		err:     fmt.Errorf("%s: %w", msg, coretypes.ErrValidation),
	}
}
