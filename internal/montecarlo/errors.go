package montecarlo

import "errors"

var (
	// ErrInvalidSampleBudget is returned when the requested number of
	// samples is not positive.
	ErrInvalidSampleBudget = errors.New("invalid sample budget")

	// ErrInvalidReferenceArea is returned when the reference area is not a
	// positive finite number.
	ErrInvalidReferenceArea = errors.New("invalid reference area")

	// ErrInvalidArgument covers the remaining run parameters: display
	// limit, chunk size, checkpoint schedule and convergence mode.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCanceled is returned when the run context ends between chunks.
	// It wraps the context error.
	ErrCanceled = errors.New("estimation canceled")
)
