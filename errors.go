package kwharvest

import "github.com/kailas-cloud/kwharvest/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrEmptySeed      = domain.ErrEmptySeed
	ErrNoProviders    = domain.ErrNoProviders
	ErrInvalidOptions = domain.ErrInvalidOptions
	ErrRunNotFound    = domain.ErrRunNotFound
	ErrRunNotActive   = domain.ErrRunNotActive
	ErrRunActive      = domain.ErrRunActive
)
