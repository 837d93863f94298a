// Package apperr defines the error taxonomy shared by storage, dbstore, and
// processing so that retry/terminal decisions agree on one classification
// instead of each package inventing its own sentinels.
package apperr

import "errors"

// Class is the taxonomy a caller uses to decide whether to retry, surface a
// 4xx, or exit.
type Class int

const (
	ClassUnknown Class = iota
	ClassTransient
	ClassNotFound
	ClassValidation
	ClassConflict
	ClassForbidden
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassNotFound:
		return "not_found"
	case ClassValidation:
		return "validation"
	case ClassConflict:
		return "conflict"
	case ClassForbidden:
		return "forbidden"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

var (
	// ErrTransient wraps retryable failures: network blips, 5xx, connection
	// resets, lock contention.
	ErrTransient = errors.New("transient error")
	// ErrNotFound wraps a missing resource. For a photo's original, this is
	// terminal rather than retried.
	ErrNotFound = errors.New("not found")
	// ErrValidation wraps bad input; never retried.
	ErrValidation = errors.New("validation error")
	// ErrConflict wraps a unique-constraint violation or a state race.
	ErrConflict = errors.New("conflict")
	// ErrForbidden wraps an authorization failure. Never reaches the
	// processing pipeline.
	ErrForbidden = errors.New("forbidden")
	// ErrFatal wraps misconfiguration: missing bucket, invalid credentials.
	// Causes exit at startup, never mid-run.
	ErrFatal = errors.New("fatal error")
)

// wrapped associates an underlying error with a class, preserving Unwrap so
// callers can still errors.Is against both the sentinel and the cause.
type wrapped struct {
	class Class
	err   error
}

func (w *wrapped) Error() string { return w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func (w *wrapped) sentinel() error {
	switch w.class {
	case ClassTransient:
		return ErrTransient
	case ClassNotFound:
		return ErrNotFound
	case ClassValidation:
		return ErrValidation
	case ClassConflict:
		return ErrConflict
	case ClassForbidden:
		return ErrForbidden
	case ClassFatal:
		return ErrFatal
	default:
		return nil
	}
}

func (w *wrapped) Is(target error) bool {
	s := w.sentinel()
	return s != nil && errors.Is(s, target)
}

// Wrap tags err with class, preserving it for errors.Is/errors.As.
func Wrap(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &wrapped{class: class, err: err}
}

// Transient tags err as retryable.
func Transient(err error) error { return Wrap(ClassTransient, err) }

// NotFound tags err as a missing resource.
func NotFound(err error) error { return Wrap(ClassNotFound, err) }

// Validation tags err as bad input.
func Validation(err error) error { return Wrap(ClassValidation, err) }

// Conflict tags err as a unique-constraint violation or state race.
func Conflict(err error) error { return Wrap(ClassConflict, err) }

// Forbidden tags err as an authorization failure.
func Forbidden(err error) error { return Wrap(ClassForbidden, err) }

// Fatal tags err as a startup-time misconfiguration.
func Fatal(err error) error { return Wrap(ClassFatal, err) }

// Classify returns the Class of err, walking wrapped sentinels via
// errors.Is. Returns ClassUnknown if err does not carry a recognized class.
func Classify(err error) Class {
	if err == nil {
		return ClassUnknown
	}
	var w *wrapped
	if errors.As(err, &w) {
		return w.class
	}
	switch {
	case errors.Is(err, ErrTransient):
		return ClassTransient
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrValidation):
		return ClassValidation
	case errors.Is(err, ErrConflict):
		return ClassConflict
	case errors.Is(err, ErrForbidden):
		return ClassForbidden
	case errors.Is(err, ErrFatal):
		return ClassFatal
	default:
		return ClassUnknown
	}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool { return Classify(err) == ClassTransient }

// IsNotFound reports whether err represents a missing resource.
func IsNotFound(err error) bool { return Classify(err) == ClassNotFound }

// IsValidation reports whether err represents bad input that should not be
// retried.
func IsValidation(err error) bool { return Classify(err) == ClassValidation }
