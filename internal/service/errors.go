package service

import (
	"fmt"

	"github.com/LeventeLantos/ema-scheduler/internal/client"
	"github.com/LeventeLantos/ema-scheduler/internal/directory"
	"github.com/LeventeLantos/ema-scheduler/internal/timing"
)

// Failure types a scheduling run can return, gathered in one place.
type (
	RecipientNotFoundError  = directory.RecipientNotFoundError
	AmbiguousRecipientError = directory.AmbiguousRecipientError
	PartitionConfigError    = timing.PartitionConfigError
	ExternalServiceError    = client.ExternalServiceError
)

// ValidationError is a bad campaign plan field. Nothing has been sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
