package table

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is matched by every *LoadError.
	ErrLoad = errors.New("load failed")
	// ErrInvalidColumn is returned when a filter names an unknown column.
	ErrInvalidColumn = errors.New("invalid column")
	// ErrEmptyPattern is returned for an empty filter pattern. Callers treat it
	// as a warning: nothing was filtered.
	ErrEmptyPattern = errors.New("empty filter pattern")
)

// LoadError describes why a source could not become a Table.
type LoadError struct {
	Source string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	msg := "load"
	if e.Source != "" {
		msg += " " + e.Source
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

func (e *LoadError) Is(target error) bool { return target == ErrLoad }

// NewLoadError wraps err as a load failure for source.
func NewLoadError(source, reason string, err error) *LoadError {
	return &LoadError{Source: source, Reason: reason, Err: err}
}

func invalidColumn(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidColumn, name)
}
