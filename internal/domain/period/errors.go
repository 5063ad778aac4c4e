package period

import "errors"

var (
	ErrPeriodNotFound     = errors.New("evaluation period not found")
	ErrDuplicatePeriod    = errors.New("a period for this year and half already exists")
	ErrPeriodHasSheets    = errors.New("a period with sheets cannot be deleted")
	ErrPhaseTerminal      = errors.New("period is already in the terminal phase")
	ErrAssignmentNotFound = errors.New("period assignment not found")
)
