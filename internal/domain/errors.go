package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptySeed signals a seed that is empty after trimming.
	ErrEmptySeed = errors.New("seed is empty")
	// ErrNoProviders signals that no suggestion provider is enabled.
	ErrNoProviders = errors.New("no providers enabled")
	// ErrInvalidOptions signals malformed search options.
	ErrInvalidOptions = errors.New("invalid search options")
	// ErrRunNotFound signals an unknown run id.
	ErrRunNotFound = errors.New("run not found")
	// ErrRunNotActive signals an operation that needs a running harvest.
	ErrRunNotActive = errors.New("run is not active")
	// ErrRunActive signals an operation that needs a finished run.
	ErrRunActive = errors.New("run is still active")
	// ErrAnalyzerNotConfigured signals a missing AI analyzer credential.
	ErrAnalyzerNotConfigured = errors.New("analyzer not configured")
	// ErrAnalyzerFailed signals an AI analyzer call or decode failure.
	ErrAnalyzerFailed = errors.New("analyzer failed")
	// ErrInvalidAnalysisMode signals an unknown analysis mode.
	ErrInvalidAnalysisMode = errors.New("invalid analysis mode")
	// ErrNothingToAnalyze signals an empty keyword selection.
	ErrNothingToAnalyze = errors.New("nothing to analyze")
)

// UnknownProviderError wraps ErrInvalidOptions with the offending provider id.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("%s: unknown provider %q", ErrInvalidOptions.Error(), e.Provider)
}

func (e *UnknownProviderError) Unwrap() error { return ErrInvalidOptions }

// NewUnknownProvider creates an unknown provider error.
func NewUnknownProvider(provider string) error {
	return &UnknownProviderError{Provider: provider}
}
