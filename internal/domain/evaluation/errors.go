package evaluation

import (
	"errors"
	"fmt"
)

var (
	ErrSheetNotFound  = errors.New("evaluation sheet not found")
	ErrGoalNotFound   = errors.New("goal not found")
	ErrViewerNotFound = errors.New("additional viewer not found")
	ErrForbidden      = errors.New("forbidden")
)

// ValidationError carries a caller-facing reason; resubmission with
// corrected input is always possible.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
