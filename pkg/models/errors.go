package models

import "errors"

var (
	// ErrUnknownStepKind indicates a step kind tag with no registered inputs type.
	ErrUnknownStepKind = errors.New("unknown step kind")

	// ErrUnknownTriggerKind indicates a trigger kind tag with no registered inputs type.
	ErrUnknownTriggerKind = errors.New("unknown trigger kind")
)
