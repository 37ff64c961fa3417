package service

import (
	"errors"
	"fmt"
)

// Error kinds returned by the repositories. Callers match them with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidPriority   = fmt.Errorf("%w: invalid priority", ErrValidation)
	ErrInvalidStatus     = fmt.Errorf("%w: invalid status", ErrValidation)
	ErrInvalidPagination = fmt.Errorf("%w: invalid pagination params", ErrValidation)

	ErrNotFound        = errors.New("not found")
	ErrProjectNotFound = fmt.Errorf("project %w", ErrNotFound)
	ErrTaskNotFound    = fmt.Errorf("task %w", ErrNotFound)

	ErrDuplicateName    = errors.New("project already exists")
	ErrStoreUnavailable = errors.New("store unavailable")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
