package game

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced by the engine. Callers match these with
// errors.Is and read the wrapping RuleError for context.
var (
	ErrMatchNotFound     = errors.New("match not found")
	ErrMatchCompleted    = errors.New("match already completed")
	ErrActionNotAllowed  = errors.New("action not allowed")
	ErrInvalidTribute    = errors.New("invalid tribute")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrInstanceNotFound  = errors.New("card instance not found")
	ErrZoneOccupied      = errors.New("zone occupied")
	ErrZoneEmpty         = errors.New("zone empty")
	ErrPendingTrigger    = errors.New("awaiting trigger decision")
	ErrDeckConfiguration = errors.New("invalid deck configuration")
)

// RuleError is a legality violation. It never indicates a corrupted match:
// the state is untouched and the caller may correct and resubmit.
type RuleError struct {
	Kind    error
	Reason  string
	Details map[string]string
}

func (e *RuleError) Error() string {
	if e.Reason == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Reason)
}

func (e *RuleError) Unwrap() error { return e.Kind }

func ruleErr(kind error, reason string, details map[string]string) error {
	return &RuleError{Kind: kind, Reason: reason, Details: details}
}
