package distribution

import (
	"errors"
	"fmt"

	"drive-distribution/domain/roster"
)

var (
	// ErrConfiguration is returned when an activity's distribution settings are invalid
	ErrConfiguration = errors.New("invalid distribution configuration")

	// ErrNoRecipients is returned when the roster resolves to zero targets
	ErrNoRecipients = errors.New("no recipients to distribute to")

	// ErrTransport is returned when a whole batch call fails, e.g. expired credentials.
	// The run can be retried.
	ErrTransport = errors.New("document store transport failed")

	// ErrCorrelation is returned when batch results cannot be matched to their targets
	ErrCorrelation = errors.New("batch results could not be correlated")

	// ErrNoResult is recorded for a target whose request produced no batch result
	ErrNoResult = errors.New("no result returned for request")

	// ErrActivityNotFound is returned when the activity does not exist
	ErrActivityNotFound = errors.New("activity not found")

	// ErrAlreadyDistributed is returned when the activity has already been shared
	ErrAlreadyDistributed = errors.New("activity has already been distributed")

	// ErrRunInProgress is returned when another run holds the activity's lock
	ErrRunInProgress = errors.New("a distribution run is already in progress for this activity")

	// ErrLockLost is returned when a run's lock was taken over before the run finished
	ErrLockLost = errors.New("run lock was lost")

	// ErrInvalidTransition is returned when a target's state machine is driven out of order
	ErrInvalidTransition = errors.New("invalid target state transition")

	// ErrUnknownDistribution is returned for an unrecognised distribution identifier
	ErrUnknownDistribution = errors.New("unknown distribution")

	// ErrUnknownPermission is returned for an unrecognised permission keyword
	ErrUnknownPermission = errors.New("unknown permission")

	// ErrUnknownFileType is returned for an unrecognised document type
	ErrUnknownFileType = errors.New("unknown file type")

	// ErrInvalidFileURL is returned when no file id can be extracted from a Drive URL
	ErrInvalidFileURL = errors.New("invalid drive file url")
)

// CorrelationError describes which key could not be reconciled and why
type CorrelationError struct {
	Key    string
	Reason string
}

func (e *CorrelationError) Error() string {
	return fmt.Sprintf("%s: key %q: %s", ErrCorrelation, e.Key, e.Reason)
}

// Unwrap lets errors.Is match ErrCorrelation
func (e *CorrelationError) Unwrap() error {
	return ErrCorrelation
}

// ConfigurationError reports a distribution that does not match its roster selection
type ConfigurationError struct {
	Distribution Distribution
	Shape        roster.Shape
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s does not match selection %q", ErrConfiguration, e.Distribution, e.Shape)
}

// Unwrap lets errors.Is match ErrConfiguration
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
