package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared across the ledger, services and adapters. Callers match
// them with errors.Is; producers wrap them with additional context.
var (
	// ErrInvalidValue indicates a rejected input value such as a non-positive weight.
	ErrInvalidValue = errors.New("invalid value")
	// ErrNotFound indicates a missing entry, user or record.
	ErrNotFound = errors.New("not found")
	// ErrEmptyLedger indicates that the ledger holds too few entries for the request.
	ErrEmptyLedger = errors.New("empty ledger")
	// ErrTransport indicates that a remote endpoint could not be reached.
	ErrTransport = errors.New("transport failure")
	// ErrAuthExpired indicates that the session token was rejected.
	ErrAuthExpired = errors.New("session expired")
	// ErrMalformedAIResponse indicates an unparseable or incomplete advisory response.
	ErrMalformedAIResponse = errors.New("malformed ai response")

	// ErrDuplicateDate indicates that another entry already occupies the date.
	ErrDuplicateDate = fmt.Errorf("%w: date already has an entry", ErrInvalidValue)
	// ErrAnalysisInProgress indicates a re-entrant advisory submission.
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrIncompleteProfile indicates that the profile lacks fields needed for advice.
	ErrIncompleteProfile = errors.New("profile is incomplete")
	// ErrUsernameTaken indicates a registration for an existing username.
	ErrUsernameTaken = errors.New("username already taken")
)
