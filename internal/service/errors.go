package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDeadlineExpired     = errors.New("meal selection deadline has passed")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed")
)

// DeadlineError carries the deadline that was missed so callers can show it.
type DeadlineError struct {
	Deadline time.Time
}

func (e *DeadlineError) Error() string {
	return fmt.Sprintf("meal selection deadline passed at %s", e.Deadline.Format(time.RFC3339))
}

func (e *DeadlineError) Is(target error) bool {
	return target == ErrDeadlineExpired
}

type PaymentPendingError struct {
	Name   string
	Status models.PaymentStatus
}

func (e *PaymentPendingError) Error() string {
	return fmt.Sprintf("payment for %s is %s, not paid", e.Name, e.Status)
}

func (e *PaymentPendingError) Is(target error) bool {
	return target == ErrPaymentNotConfirmed
}

// IncompleteSelectionsError reports a meal submission whose per-group
// counts do not match the party.
type IncompleteSelectionsError struct {
	WantUnder5 int
	GotUnder5  int
	WantOver5  int
	GotOver5   int
}

func (e *IncompleteSelectionsError) Error() string {
	return fmt.Sprintf("incomplete selections: expected %d under 5 and %d over 5, got %d and %d",
		e.WantUnder5, e.WantOver5, e.GotUnder5, e.GotOver5)
}

func (e *IncompleteSelectionsError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound maps the repository miss onto the service error and wraps
// everything else with the call site.
func notFound(op string, err error) error {
	if errors.Is(err, repository.ErrRegistrationNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s -> %w", op, err)
}
