// Package apperr defines the two error classes the pharmacy core surfaces to
// callers: ValidationError for data-integrity violations and UserError for
// workflow violations. Both are local, synchronous and non-retryable.
package apperr

import "errors"

// ValidationError reports a data-integrity violation (duplicate identifier,
// expired license, non-positive quantity). The write is blocked and the
// message is surfaced verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// UserError reports an operational/workflow violation (missing pharmacist
// approval, cancelling a dispensed prescription). The action is blocked but
// no state is corrupted.
type UserError struct {
	Message string
}

func (e *UserError) Error() string { return e.Message }

func Validation(msg string) error { return &ValidationError{Message: msg} }

func User(msg string) error { return &UserError{Message: msg} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUser reports whether err is (or wraps) a UserError.
func IsUser(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
