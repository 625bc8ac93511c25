package resumes

import (
	"errors"
	"strings"
)

var (
	ErrNotFound     = errors.New("resume not found")
	ErrInvalidInput = errors.New("invalid input")
)

// InputError lists the problems found in a request body. It matches ErrInvalidInput.
type InputError struct {
	Issues []string
}

func (e *InputError) Error() string {
	if len(e.Issues) == 0 {
		return ErrInvalidInput.Error()
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(e.Issues, "; ")
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(issues ...string) error {
	return &InputError{Issues: issues}
}
