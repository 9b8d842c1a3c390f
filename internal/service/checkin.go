package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/notifier"
	"go.uber.org/zap"
)

// DefaultOperator is recorded when a check-in names nobody.
const DefaultOperator = "Volunteer"

type CheckInStore interface {
	HistoryStore
	FindByCheckInCode(ctx context.Context, code string) (models.Registration, error)
	MarkCheckedIn(ctx context.Context, code string, at time.Time, by string) (bool, error)
	UndoCheckIn(ctx context.Context, code string) (bool, error)
}

type CheckInOutcome string

const (
	OutcomeCheckedIn        CheckInOutcome = "checked_in"
	OutcomeAlreadyCheckedIn CheckInOutcome = "already_checked_in"
)

type CheckInResult struct {
	Outcome      CheckInOutcome
	Registration models.Registration
}

type CheckInService struct {
	store    CheckInStore
	notifier notifier.Notifier
	now      func() time.Time
}

func NewCheckInService(store CheckInStore, n notifier.Notifier) *CheckInService {
	if n == nil {
		n = notifier.Multi(nil)
	}
	return &CheckInService{store: store, notifier: n, now: time.Now}
}

// Lookup returns the registration behind a check-in code without changing
// anything.
func (s *CheckInService) Lookup(ctx context.Context, code string) (models.Registration, error) {
	reg, err := s.store.FindByCheckInCode(ctx, code)
	if err != nil {
		return models.Registration{}, notFound("s.store.FindByCheckInCode", err)
	}
	return reg, nil
}

// CheckIn admits the party behind code. The write is conditional, so of two
// concurrent scans exactly one gets OutcomeCheckedIn and the other sees the
// winner's time and operator.
func (s *CheckInService) CheckIn(ctx context.Context, code, operator string) (CheckInResult, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		operator = DefaultOperator
	}

	reg, err := s.store.FindByCheckInCode(ctx, code)
	if err != nil {
		return CheckInResult{}, notFound("s.store.FindByCheckInCode", err)
	}
	if reg.CheckedIn {
		return CheckInResult{Outcome: OutcomeAlreadyCheckedIn, Registration: reg}, nil
	}
	if reg.PaymentStatus != models.PaymentPaid {
		return CheckInResult{}, &PaymentPendingError{Name: reg.Name, Status: reg.PaymentStatus}
	}

	at := s.now().UTC()
	ok, err := s.store.MarkCheckedIn(ctx, code, at, operator)
	if err != nil {
		return CheckInResult{}, fmt.Errorf("s.store.MarkCheckedIn -> %w", err)
	}

	// Re-read either way: on success for the stored values, otherwise to see
	// which precondition changed underneath us.
	current, err := s.store.FindByCheckInCode(ctx, code)
	if err != nil {
		return CheckInResult{}, notFound("s.store.FindByCheckInCode", err)
	}

	if !ok {
		switch {
		case current.CheckedIn:
			return CheckInResult{Outcome: OutcomeAlreadyCheckedIn, Registration: current}, nil
		case current.PaymentStatus != models.PaymentPaid:
			return CheckInResult{}, &PaymentPendingError{Name: current.Name, Status: current.PaymentStatus}
		default:
			return CheckInResult{}, fmt.Errorf("check-in for %s was not applied", current.ID)
		}
	}

	zap.L().Info("checked in",
		zap.String("registration_id", current.ID),
		zap.String("code", code),
		zap.String("operator", operator))
	recordHistory(ctx, s.store, current.ID, models.ActionCheckedIn, operator, "")
	notifyOrLog("check-in", current, s.notifier.NotifyCheckIn)

	return CheckInResult{Outcome: OutcomeCheckedIn, Registration: current}, nil
}

// Undo reverts a check-in. Undoing a registration that is not checked in
// is a no-op.
func (s *CheckInService) Undo(ctx context.Context, code, actor string) (models.Registration, error) {
	reg, err := s.store.FindByCheckInCode(ctx, code)
	if err != nil {
		return models.Registration{}, notFound("s.store.FindByCheckInCode", err)
	}

	ok, err := s.store.UndoCheckIn(ctx, code)
	if err != nil {
		return models.Registration{}, fmt.Errorf("s.store.UndoCheckIn -> %w", err)
	}
	if !ok {
		return reg, nil
	}

	zap.L().Info("check-in undone",
		zap.String("registration_id", reg.ID),
		zap.String("code", code),
		zap.String("actor", actor))
	recordHistory(ctx, s.store, reg.ID, models.ActionCheckInUndone, actor,
		fmt.Sprintf("was checked in by %s", reg.CheckInBy))

	return s.Lookup(ctx, code)
}
