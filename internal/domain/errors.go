package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Problem errors
var (
	ErrProblemNotFound = errors.New("problem not found")
	ErrInvalidProblem  = errors.New("invalid problem")
)

// Step errors
var (
	ErrInvalidStep = errors.New("invalid step")
)

// Runner errors
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrRunNotFound         = errors.New("run not found")
	ErrQueueDisabled       = errors.New("run queue disabled")
)

// Feedback errors
var (
	ErrProviderUnavailable = errors.New("feedback provider unavailable")
)

// General errors
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)
