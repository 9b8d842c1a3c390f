package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/notifier"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.uber.org/zap"
)

type RegistrationStore interface {
	HistoryStore
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id string) (models.Registration, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.Registration, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	MarkPaid(ctx context.Context, id, code string) error
	UpdateMealDeadline(ctx context.Context, id string, deadline time.Time) error
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, registrationID string) ([]models.RegistrationHistory, error)
	Stats(ctx context.Context) (repository.Stats, error)
}

type RegistrationInput struct {
	Name                string
	Phone               string
	Email               string
	Party               models.PartyComposition
	DietaryRestrictions string
}

func (in RegistrationInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Phone, validation.Required, validation.Length(5, 32)),
		validation.Field(&in.Email, is.Email),
		validation.Field(&in.DietaryRestrictions, validation.Length(0, 1000)),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	p := in.Party
	err = validation.Errors{
		"under5":    validation.Validate(p.Under5, validation.Min(0)),
		"age5to12":  validation.Validate(p.Age5To12, validation.Min(0)),
		"age12plus": validation.Validate(p.Age12Plus, validation.Min(0)),
	}.Filter()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if p.Headcount() < 1 {
		return invalidInput("party must include at least one attendee")
	}
	return nil
}

type RegistrationService struct {
	store    RegistrationStore
	tokens   TokenGenerator
	notifier notifier.Notifier
}

func NewRegistrationService(store RegistrationStore, tokens TokenGenerator, n notifier.Notifier) *RegistrationService {
	if n == nil {
		n = notifier.Multi(nil)
	}
	return &RegistrationService{store: store, tokens: tokens, notifier: n}
}

func (s *RegistrationService) Create(ctx context.Context, in RegistrationInput) (models.Registration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return models.Registration{}, err
	}

	reg := models.Registration{
		Name:                in.Name,
		Phone:               in.Phone,
		Email:               in.Email,
		PartyComposition:    in.Party,
		DietaryRestrictions: in.DietaryRestrictions,
		PaymentStatus:       models.PaymentPending,
	}
	if err := s.store.Create(ctx, &reg); err != nil {
		return models.Registration{}, fmt.Errorf("s.store.Create -> %w", err)
	}

	zap.L().Info("registration created",
		zap.String("registration_id", reg.ID),
		zap.Int("headcount", reg.Headcount()),
		zap.Int("total_amount", reg.TotalAmount))
	recordHistory(ctx, s.store, reg.ID, models.ActionCreated, reg.Name,
		fmt.Sprintf("party %d/%d/%d, amount %d", reg.Under5, reg.Age5To12, reg.Age12Plus, reg.TotalAmount))
	notifyOrLog("registration", reg, s.notifier.NotifyRegistration)

	return reg, nil
}

func (s *RegistrationService) Get(ctx context.Context, id string) (models.Registration, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Registration{}, notFound("s.store.FindByID", err)
	}
	return reg, nil
}

func (s *RegistrationService) List(ctx context.Context, filter repository.ListFilter) ([]models.Registration, error) {
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, invalidInput("unknown payment status %q", filter.PaymentStatus)
	}
	regs, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("s.store.List -> %w", err)
	}
	return regs, nil
}

// UpdatePaymentStatus changes the payment status. Moving to paid assigns a
// check-in code in the same write when the registration has none, so a
// failed assignment leaves the registration as it was.
func (s *RegistrationService) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, actor string) (models.Registration, error) {
	if !status.Valid() {
		return models.Registration{}, invalidInput("unknown payment status %q", status)
	}

	before, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Registration{}, notFound("s.store.FindByID", err)
	}

	var code string
	if status == models.PaymentPaid && !before.HasCheckInCode() {
		code, err = assignToken(s.tokens, token.KindCheckInCode, func(c string) (bool, error) {
			return true, s.store.MarkPaid(ctx, id, c)
		})
		if err != nil {
			return models.Registration{}, notFound("s.store.MarkPaid", err)
		}
	} else if err := s.store.UpdatePaymentStatus(ctx, id, status); err != nil {
		return models.Registration{}, notFound("s.store.UpdatePaymentStatus", err)
	}

	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Registration{}, notFound("s.store.FindByID", err)
	}

	if before.PaymentStatus != status {
		recordHistory(ctx, s.store, id, models.ActionPaymentStatus, actor,
			fmt.Sprintf("%s -> %s", before.PaymentStatus, status))
	}
	if code != "" && reg.CodeValue() == code {
		zap.L().Info("check-in code assigned",
			zap.String("registration_id", id),
			zap.String("code", code))
		recordHistory(ctx, s.store, id, models.ActionCheckInCode, actor, code)
	}

	if status == models.PaymentPaid && before.PaymentStatus != models.PaymentPaid {
		notifyOrLog("payment", reg, s.notifier.NotifyPaymentConfirmed)
	}
	return reg, nil
}

// SetMealDeadline overrides the meal selection deadline of one
// registration.
func (s *RegistrationService) SetMealDeadline(ctx context.Context, id string, deadline time.Time, actor string) (models.Registration, error) {
	if deadline.IsZero() {
		return models.Registration{}, invalidInput("deadline is required")
	}
	if err := s.store.UpdateMealDeadline(ctx, id, deadline.UTC()); err != nil {
		return models.Registration{}, notFound("s.store.UpdateMealDeadline", err)
	}
	recordHistory(ctx, s.store, id, models.ActionMealDeadline, actor, deadline.UTC().Format(time.RFC3339))

	return s.Get(ctx, id)
}

func (s *RegistrationService) Delete(ctx context.Context, id, actor string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return notFound("s.store.Delete", err)
	}
	zap.L().Info("registration deleted", zap.String("registration_id", id), zap.String("actor", actor))
	recordHistory(ctx, s.store, id, models.ActionDeleted, actor, "")
	return nil
}

func (s *RegistrationService) History(ctx context.Context, id string) ([]models.RegistrationHistory, error) {
	entries, err := s.store.History(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("s.store.History -> %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries, nil
}

func (s *RegistrationService) Stats(ctx context.Context) (repository.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return repository.Stats{}, fmt.Errorf("s.store.Stats -> %w", err)
	}
	return stats, nil
}
