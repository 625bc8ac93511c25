package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Known request error codes.
const (
	CodeUniqueViolation     = "P2002"
	CodeForeignKeyViolation = "P2003"
	CodeNotFound            = "P2025"
)

var (
	ErrNotFound            = errors.New("record not found")
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
	ErrValidation          = errors.New("invalid query arguments")
)

// KnownRequestError is a failure the caller can act on: a missing record or a violated constraint.
type KnownRequestError struct {
	Code   string
	Model  string
	Target []string
	Err    error
}

func (e *KnownRequestError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.message())
	if e.Model != "" {
		fmt.Fprintf(&b, " on %s", e.Model)
	}
	if len(e.Target) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Target, ", "))
	}
	return b.String()
}

func (e *KnownRequestError) message() string {
	switch e.Code {
	case CodeUniqueViolation:
		return "unique constraint failed"
	case CodeForeignKeyViolation:
		return "foreign key constraint failed"
	case CodeNotFound:
		return "record to operate on was not found"
	default:
		return "request failed"
	}
}

func (e *KnownRequestError) Unwrap() error { return e.Err }

// Is matches the sentinel error for the code.
func (e *KnownRequestError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrUniqueViolation:
		return e.Code == CodeUniqueViolation
	case ErrForeignKeyViolation:
		return e.Code == CodeForeignKeyViolation
	}
	return false
}

func notFound(model string) error {
	return &KnownRequestError{Code: CodeNotFound, Model: model}
}

func uniqueViolation(model string, target ...string) error {
	return &KnownRequestError{Code: CodeUniqueViolation, Model: model, Target: target}
}

func foreignKeyViolation(model string, target ...string) error {
	return &KnownRequestError{Code: CodeForeignKeyViolation, Model: model, Target: target}
}

// UnknownRequestError wraps a database failure the store cannot classify.
type UnknownRequestError struct {
	Model string
	Err   error
}

func (e *UnknownRequestError) Error() string {
	if e.Model == "" {
		return "unknown request error: " + e.Err.Error()
	}
	return fmt.Sprintf("unknown request error on %s: %v", e.Model, e.Err)
}

func (e *UnknownRequestError) Unwrap() error { return e.Err }

// InitializationError reports that an engine could not be brought up.
type InitializationError struct {
	Stage string
	Err   error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed (%s): %v", e.Stage, e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// ValidationError collects every problem found in a set of query arguments.
type ValidationError struct {
	Model string
	errs  *multierror.Error
}

func (e *ValidationError) Error() string {
	if e.errs == nil {
		return "validation failed on " + e.Model
	}
	msgs := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Model, strings.Join(msgs, "; "))
}

// Issues returns the individual validation problems.
func (e *ValidationError) Issues() []string {
	if e.errs == nil {
		return nil
	}
	out := make([]string, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		out = append(out, err.Error())
	}
	return out
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// issues accumulates validation problems for one model.
type issues struct {
	model string
	errs  *multierror.Error
}

func newIssues(model string) *issues {
	return &issues{model: model}
}

func (v *issues) add(format string, args ...any) {
	v.errs = multierror.Append(v.errs, fmt.Errorf(format, args...))
}

func (v *issues) err() error {
	if v.errs == nil || len(v.errs.Errors) == 0 {
		return nil
	}
	return &ValidationError{Model: v.model, errs: v.errs}
}

func validationError(model, format string, args ...any) error {
	v := newIssues(model)
	v.add(format, args...)
	return v.err()
}
