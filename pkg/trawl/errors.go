package trawl

import (
	"errors"
	"fmt"
)

// ErrInvalidPattern indicates a find pattern that does not compile. It
// fails the device using the pattern, not the whole run.
var ErrInvalidPattern = errors.New("invalid search pattern")

// PatternError reports the offending pattern alongside the compile
// error.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("search pattern '%s': %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return ErrInvalidPattern
}
