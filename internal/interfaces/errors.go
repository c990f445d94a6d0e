package interfaces

import (
	"errors"
	"fmt"
)

var (
	// ErrTargetNotFound is returned when a semantic page target cannot be
	// resolved by its primary selector or any fallback.
	ErrTargetNotFound = errors.New("page target not found")

	// ErrUnauthorized is returned when the remote store rejects the bearer
	// token (or no token was supplied). Always fatal for the run.
	ErrUnauthorized = errors.New("session store authorization failed")

	// ErrRunActive is returned when a scrape is requested while another
	// session is still running.
	ErrRunActive = errors.New("a scrape session is already active")

	// ErrJobNotFound is returned when a scrape job ID is unknown.
	ErrJobNotFound = errors.New("scrape job not found")

	// ErrScheduleNotFound is returned when a schedule ID is unknown.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// TargetError wraps ErrTargetNotFound with the semantic target name so
// callers can log which piece of the page went missing.
func TargetError(name string) error {
	return fmt.Errorf("%w: %s", ErrTargetNotFound, name)
}
