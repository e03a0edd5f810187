package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRow reports an unparseable field or a short row.
	ErrMalformedRow = errors.New("malformed row")

	// ErrInconsistentTotal reports a storm whose summed incremental rain
	// disagrees with its cumulative total.
	ErrInconsistentTotal = errors.New("cumulative rainfall does not match summed increments")

	// ErrInvalidSubcatchment reports a parameter record outside its valid range.
	ErrInvalidSubcatchment = errors.New("invalid subcatchment")

	// ErrDuplicateSubcatchment reports two parameter records with the same name.
	ErrDuplicateSubcatchment = errors.New("duplicate subcatchment")

	// ErrMissingAdjustment reports a result whose subcatchment has no adjustment factor.
	ErrMissingAdjustment = errors.New("missing adjustment factor")
)

// RowError ties a failure to the source row that caused it.
type RowError struct {
	Source string // "rain", "subcatchment", "adjustment"
	Line   int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Source, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func rowErrorf(source string, line int, sentinel error, format string, args ...any) error {
	return &RowError{
		Source: source,
		Line:   line,
		Err:    fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}
