package settlement

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("invalid booking request")
	ErrUnknownVendor      = fmt.Errorf("%w: vendor has no payout profile", ErrValidation)
	ErrLookupFailed       = errors.New("settlement lookup failed")
	ErrSessionCreation    = errors.New("payment session could not be created")
	ErrCheckoutInProgress = errors.New("checkout already in progress for this booking")
	ErrPlanNotFound       = errors.New("settlement plan not found")
)

// ValidationError carries the specific reason a request was rejected. It
// matches ErrValidation under errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func lookupFailed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrLookupFailed, what, err)
}
