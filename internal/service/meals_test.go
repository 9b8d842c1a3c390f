package service

import (
	"context"
	"testing"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const mealToken = "0123456789abcdef0123456789abcdef"

func seedMealRegistration(t *testing.T, db *gorm.DB) models.Registration {
	t.Helper()
	deadline := eventDeadline
	return seedRegistration(t, db, models.Registration{
		PartyComposition:      models.PartyComposition{Under5: 1, Age5To12: 2},
		PaymentStatus:         models.PaymentPaid,
		MealSelectionToken:    strPtr(mealToken),
		MealSelectionDeadline: &deadline,
	})
}

func familySelections() []models.MealSelection {
	return []models.MealSelection{
		{AgeCategory: models.AgeUnder5, PersonIndex: 0, MealChoice: models.MealNuggetsAndChips},
		{AgeCategory: models.Age5To12, PersonIndex: 0, MealChoice: models.MealBurger},
		{AgeCategory: models.Age5To12, PersonIndex: 1, MealChoice: models.MealRiceAndCurry},
	}
}

func TestMealSubmitScenario(t *testing.T) {
	store, db := setupStore(t)
	reg := seedMealRegistration(t, db)
	svc := NewMealService(store)
	svc.now = fixedClock(eventDeadline.Add(-24 * time.Hour))
	ctx := context.Background()

	before, err := svc.Verify(ctx, mealToken)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, before.ID)
	assert.False(t, before.MealSelectionComplete)
	assert.Empty(t, before.MealSelections)

	res, err := svc.Submit(ctx, mealToken, MealSubmission{
		Selections:          familySelections(),
		DietaryRestrictions: " no nuts ",
	})
	require.NoError(t, err)
	assert.False(t, res.AlreadySubmitted)
	assert.True(t, res.Registration.MealSelectionComplete)
	require.NotNil(t, res.Registration.MealSelectionSubmittedAt)
	assert.Equal(t, "no nuts", res.Registration.DietaryRestrictions)
	firstSubmittedAt := *res.Registration.MealSelectionSubmittedAt

	// A second, different submission does not overwrite the first.
	svc.now = fixedClock(eventDeadline.Add(-time.Hour))
	other := familySelections()
	other[0].MealChoice = models.MealNotRequired
	again, err := svc.Submit(ctx, mealToken, MealSubmission{Selections: other, DietaryRestrictions: "vegan"})
	require.NoError(t, err)
	assert.True(t, again.AlreadySubmitted)
	assert.Equal(t, familySelections(), []models.MealSelection(again.Registration.MealSelections))
	assert.Equal(t, "no nuts", again.Registration.DietaryRestrictions)
	assert.True(t, firstSubmittedAt.Equal(*again.Registration.MealSelectionSubmittedAt))

	after, err := svc.Verify(ctx, mealToken)
	require.NoError(t, err)
	assert.True(t, after.MealSelectionComplete)
	assert.Equal(t, familySelections(), []models.MealSelection(after.MealSelections))
}

func TestMealSubmitIncompleteSelections(t *testing.T) {
	store, db := setupStore(t)
	seedMealRegistration(t, db)
	svc := NewMealService(store)
	svc.now = fixedClock(eventDeadline.Add(-time.Hour))
	ctx := context.Background()

	_, err := svc.Submit(ctx, mealToken, MealSubmission{Selections: familySelections()[:2]})
	require.ErrorIs(t, err, ErrInvalidInput)
	var incomplete *IncompleteSelectionsError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 2, incomplete.WantOver5)
	assert.Equal(t, 1, incomplete.GotOver5)

	reg, err := store.FindByMealToken(ctx, mealToken)
	require.NoError(t, err)
	assert.False(t, reg.MealSelectionComplete)
	assert.Nil(t, reg.MealSelectionSubmittedAt)
}

func TestMealDeadlineEnforced(t *testing.T) {
	store, db := setupStore(t)
	seedMealRegistration(t, db)
	svc := NewMealService(store)
	svc.now = fixedClock(eventDeadline.Add(time.Second))
	ctx := context.Background()

	_, err := svc.Verify(ctx, mealToken)
	require.ErrorIs(t, err, ErrDeadlineExpired)
	var deadlineErr *DeadlineError
	require.ErrorAs(t, err, &deadlineErr)
	assert.True(t, eventDeadline.Equal(deadlineErr.Deadline))

	// Deadline wins over both valid and invalid payloads.
	_, err = svc.Submit(ctx, mealToken, MealSubmission{Selections: familySelections()})
	assert.ErrorIs(t, err, ErrDeadlineExpired)
	_, err = svc.Submit(ctx, mealToken, MealSubmission{})
	assert.ErrorIs(t, err, ErrDeadlineExpired)

	svc.now = fixedClock(eventDeadline)
	_, err = svc.Verify(ctx, mealToken)
	assert.NoError(t, err, "the deadline instant itself is still open")
}

func TestMealUnknownToken(t *testing.T) {
	store, _ := setupStore(t)
	svc := NewMealService(store)

	_, err := svc.Verify(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Submit(context.Background(), "nope", MealSubmission{Selections: familySelections()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidateSelections(t *testing.T) {
	party := models.PartyComposition{Under5: 1, Age5To12: 1, Age12Plus: 1}
	valid := []models.MealSelection{
		{AgeCategory: models.AgeUnder5, PersonIndex: 0, MealChoice: models.MealNotRequired},
		{AgeCategory: models.Age5To12, PersonIndex: 0, MealChoice: models.MealBurger},
		{AgeCategory: models.Age12Plus, PersonIndex: 1, MealChoice: models.MealRiceAndCurry},
	}
	require.NoError(t, ValidateSelections(party, valid))

	tests := []struct {
		name   string
		mutate func(s []models.MealSelection) []models.MealSelection
	}{
		{"unknown band", func(s []models.MealSelection) []models.MealSelection {
			s[0].AgeCategory = "over5"
			return s
		}},
		{"adult meal for toddler", func(s []models.MealSelection) []models.MealSelection {
			s[0].MealChoice = models.MealBurger
			return s
		}},
		{"toddler meal for adult", func(s []models.MealSelection) []models.MealSelection {
			s[2].MealChoice = models.MealNuggetsAndChips
			return s
		}},
		{"unknown meal", func(s []models.MealSelection) []models.MealSelection {
			s[1].MealChoice = "lobster"
			return s
		}},
		{"too many", func(s []models.MealSelection) []models.MealSelection {
			return append(s, models.MealSelection{AgeCategory: models.AgeUnder5, PersonIndex: 1, MealChoice: models.MealNotRequired})
		}},
		{"empty", func(s []models.MealSelection) []models.MealSelection {
			return nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := append([]models.MealSelection(nil), valid...)
			assert.ErrorIs(t, ValidateSelections(party, tt.mutate(s)), ErrInvalidInput)
		})
	}
}

func TestValidateSelectionsIgnoresPersonNumbering(t *testing.T) {
	party := models.PartyComposition{Under5: 1, Age5To12: 1, Age12Plus: 1}

	tests := []struct {
		name       string
		selections []models.MealSelection
	}{
		{"each band numbered from zero", []models.MealSelection{
			{AgeCategory: models.AgeUnder5, PersonIndex: 0, MealChoice: models.MealNotRequired},
			{AgeCategory: models.Age5To12, PersonIndex: 0, MealChoice: models.MealBurger},
			{AgeCategory: models.Age12Plus, PersonIndex: 0, MealChoice: models.MealRiceAndCurry},
		}},
		{"numbered from one", []models.MealSelection{
			{AgeCategory: models.AgeUnder5, PersonIndex: 1, MealChoice: models.MealNuggetsAndChips},
			{AgeCategory: models.Age5To12, PersonIndex: 1, MealChoice: models.MealBurger},
			{AgeCategory: models.Age12Plus, PersonIndex: 2, MealChoice: models.MealRiceAndCurry},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, ValidateSelections(party, tt.selections))
		})
	}
}
