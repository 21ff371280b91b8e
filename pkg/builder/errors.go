package builder

import "errors"

var (
	// ErrTriggerAlreadySet is recorded when a second trigger is configured on one builder.
	ErrTriggerAlreadySet = errors.New("automation trigger already set")

	// ErrTriggerMissing is returned by Run when no trigger has been configured.
	ErrTriggerMissing = errors.New("automation has no trigger")

	// ErrAlreadyRun is returned by every Run call after the first.
	ErrAlreadyRun = errors.New("automation builder already ran")

	// ErrEmptyResponse is returned when the harness reports success without a response.
	ErrEmptyResponse = errors.New("harness returned no response")
)
