package lifecycle

import (
	"errors"
	"fmt"

	"property-marketplace-api/internal/store"
)

// The managers translate store-level signals into these before they reach a
// caller; only ErrUnavailable passes through untranslated, and it is never
// retried here.
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrAlreadyClaimed    = errors.New("listing already claimed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrConflict          = errors.New("identifier conflict")

	// ErrUnavailable aliases the store sentinel so callers only need this
	// package's taxonomy.
	ErrUnavailable = store.ErrUnavailable
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// translateRead maps store read errors; writes are handled per call site
// because the right business error depends on the condition that failed.
func translateRead(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
