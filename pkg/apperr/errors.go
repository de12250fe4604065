// Package apperr defines the error taxonomy shared by the boundary
// operations. Validation, not-found and illegal-state errors are
// returned synchronously; transfer and placement errors surface
// asynchronously as the failed task's error detail.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrIllegalState = errors.New("illegal state")
	ErrTransfer     = errors.New("transfer error")
	ErrPlacement    = errors.New("placement error")
)

func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func IllegalStatef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}

// Transfer wraps a byte-transfer failure for classification.
func Transfer(err error) error {
	return fmt.Errorf("%w: %v", ErrTransfer, err)
}

// Placement wraps a file-placement failure for classification.
func Placement(err error) error {
	return fmt.Errorf("%w: %v", ErrPlacement, err)
}
