package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoProvidersConfigured is returned when no provider has a credential
var ErrNoProvidersConfigured = errors.New("no AI providers configured. Please add at least one API key")

// AttemptError is the terminal failure of one provider within a fallback run
type AttemptError struct {
	Provider  string `json:"provider"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`

	err error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e AttemptError) Unwrap() error { return e.err }

// AllProvidersFailedError aggregates every provider failure in attempt order
type AllProvidersFailedError struct {
	Attempts []AttemptError
}

func (e *AllProvidersFailedError) Error() string {
	lines := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		lines = append(lines, a.Error())
	}
	return "All AI providers failed:\n" + strings.Join(lines, "\n")
}

// Unwrap exposes each attempt so errors.Is/As can reach provider errors
func (e *AllProvidersFailedError) Unwrap() []error {
	errs := make([]error, len(e.Attempts))
	for i, a := range e.Attempts {
		errs[i] = a
	}
	return errs
}
