package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillCheckInCodes(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid, CheckInCode: strPtr("RSVP-OLD")})
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPending})
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentConfirmed})

	svc := NewBackfillService(store, token.NewGenerator("RSVP"), eventDeadline)

	status, err := svc.Status(ctx, token.KindCheckInCode)
	require.NoError(t, err)
	assert.Equal(t, repository.TokenCounts{Needing: 2, Have: 1}, status)

	res, err := svc.Run(ctx, token.KindCheckInCode, "admin")
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Kind: token.KindCheckInCode, Updated: 2}, res)

	status, err = svc.Status(ctx, token.KindCheckInCode)
	require.NoError(t, err)
	assert.Equal(t, repository.TokenCounts{Needing: 0, Have: 3}, status)

	old, err := store.FindByCheckInCode(ctx, "RSVP-OLD")
	require.NoError(t, err)
	assert.Equal(t, "RSVP-OLD", old.CodeValue())

	// Re-running finds nothing left to do.
	res, err = svc.Run(ctx, token.KindCheckInCode, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
}

func TestBackfillMealTokens(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	paid := seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})
	pending := seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPending})

	svc := NewBackfillService(store, token.NewGenerator("RSVP"), eventDeadline)
	res, err := svc.Run(ctx, token.KindMealToken, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	got, err := store.FindByID(ctx, paid.ID)
	require.NoError(t, err)
	assert.Regexp(t, `^[0-9a-f]{32}$`, got.MealTokenValue())
	assert.False(t, got.MealSelectionComplete)
	require.NotNil(t, got.MealSelectionDeadline)
	assert.True(t, eventDeadline.Equal(*got.MealSelectionDeadline))

	untouched, err := store.FindByID(ctx, pending.ID)
	require.NoError(t, err)
	assert.False(t, untouched.HasMealToken())

	status, err := svc.Status(ctx, token.KindMealToken)
	require.NoError(t, err)
	assert.Equal(t, repository.TokenCounts{Needing: 0, Have: 1}, status)
}

func TestBackfillRetriesCollisions(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()

	seedRegistration(t, db, models.Registration{MealSelectionToken: strPtr("taken")})
	reg := seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})

	svc := NewBackfillService(store, &scriptedTokens{queue: []string{"taken", "taken", "fresh"}}, eventDeadline)
	res, err := svc.Run(ctx, token.KindMealToken, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)

	got, err := store.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.MealTokenValue())
}

func TestBackfillContinuesPastFailures(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})

	svc := NewBackfillService(store, &scriptedTokens{err: errors.New("entropy exhausted")}, eventDeadline)
	res, err := svc.Run(ctx, token.KindCheckInCode, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 2, res.Failed)
}

func TestBackfillStopsOnCancel(t *testing.T) {
	store, db := setupStore(t)
	seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewBackfillService(store, &scriptedTokens{}, eventDeadline)
	_, err := svc.Run(ctx, token.KindCheckInCode, "admin")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackfillUnknownKind(t *testing.T) {
	store, _ := setupStore(t)
	svc := NewBackfillService(store, &scriptedTokens{}, eventDeadline)

	_, err := svc.Status(context.Background(), "qr-codes")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.Run(context.Background(), "qr-codes", "admin")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// unpaidAfterSelect moves every selected registration back to pending
// before the backfill writes to it.
type unpaidAfterSelect struct {
	*repository.RegistrationRepository
}

func (s unpaidAfterSelect) FindPaidWithoutCheckInCode(ctx context.Context) ([]models.Registration, error) {
	regs, err := s.RegistrationRepository.FindPaidWithoutCheckInCode(ctx)
	for _, r := range regs {
		if err := s.UpdatePaymentStatus(ctx, r.ID, models.PaymentPending); err != nil {
			return nil, err
		}
	}
	return regs, err
}

func TestBackfillSkipsRegistrationNoLongerPaid(t *testing.T) {
	store, db := setupStore(t)
	ctx := context.Background()
	reg := seedRegistration(t, db, models.Registration{PaymentStatus: models.PaymentPaid})

	svc := NewBackfillService(unpaidAfterSelect{store}, &scriptedTokens{}, eventDeadline)
	res, err := svc.Run(ctx, token.KindCheckInCode, "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Updated)
	assert.Equal(t, 0, res.Failed)

	got, err := store.FindByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.False(t, got.HasCheckInCode())
}
