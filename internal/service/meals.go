package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"go.uber.org/zap"
)

type MealStore interface {
	HistoryStore
	FindByMealToken(ctx context.Context, token string) (models.Registration, error)
	CompleteMealSelection(ctx context.Context, token string, selections []models.MealSelection, dietary string, at time.Time) (bool, error)
}

type MealSubmission struct {
	Selections          []models.MealSelection
	DietaryRestrictions string
}

type MealResult struct {
	Registration models.Registration
	// AlreadySubmitted is set when an earlier submission won; Registration
	// then carries the stored selections untouched.
	AlreadySubmitted bool
}

type MealService struct {
	store MealStore
	now   func() time.Time
}

func NewMealService(store MealStore) *MealService {
	return &MealService{store: store, now: time.Now}
}

// Verify resolves a meal token to its registration while the selection
// window is open.
func (s *MealService) Verify(ctx context.Context, token string) (models.Registration, error) {
	reg, err := s.open(ctx, token)
	if err != nil {
		return models.Registration{}, err
	}
	return reg, nil
}

// Submit stores the selections of a party. The first valid submission wins;
// later ones return the stored data with AlreadySubmitted set.
func (s *MealService) Submit(ctx context.Context, token string, sub MealSubmission) (MealResult, error) {
	reg, err := s.open(ctx, token)
	if err != nil {
		return MealResult{}, err
	}
	if reg.MealSelectionComplete {
		return MealResult{Registration: reg, AlreadySubmitted: true}, nil
	}

	if err := ValidateSelections(reg.PartyComposition, sub.Selections); err != nil {
		return MealResult{}, err
	}

	dietary := strings.TrimSpace(sub.DietaryRestrictions)
	ok, err := s.store.CompleteMealSelection(ctx, token, sub.Selections, dietary, s.now().UTC())
	if err != nil {
		return MealResult{}, fmt.Errorf("s.store.CompleteMealSelection -> %w", err)
	}

	current, err := s.store.FindByMealToken(ctx, token)
	if err != nil {
		return MealResult{}, notFound("s.store.FindByMealToken", err)
	}
	if !ok {
		if current.MealSelectionComplete {
			return MealResult{Registration: current, AlreadySubmitted: true}, nil
		}
		return MealResult{}, fmt.Errorf("meal selection for %s was not applied", current.ID)
	}

	zap.L().Info("meal selections submitted",
		zap.String("registration_id", current.ID),
		zap.Int("selections", len(sub.Selections)))
	recordHistory(ctx, s.store, current.ID, models.ActionMealSubmitted, current.Name,
		fmt.Sprintf("%d selections", len(sub.Selections)))

	return MealResult{Registration: current}, nil
}

// open resolves the token and enforces the deadline. A registration
// without a deadline is always open.
func (s *MealService) open(ctx context.Context, token string) (models.Registration, error) {
	reg, err := s.store.FindByMealToken(ctx, token)
	if err != nil {
		return models.Registration{}, notFound("s.store.FindByMealToken", err)
	}
	if d := reg.MealSelectionDeadline; d != nil && !d.IsZero() && s.now().After(*d) {
		return models.Registration{}, &DeadlineError{Deadline: d.UTC()}
	}
	return reg, nil
}

// ValidateSelections checks every entry against its age band and the
// per-group totals against the party. PersonIndex is a label chosen by the
// client and is stored as given.
func ValidateSelections(party models.PartyComposition, selections []models.MealSelection) error {
	counts := map[models.AgeGroup]int{}
	for i, sel := range selections {
		if !sel.AgeCategory.Valid() {
			return invalidInput("selection %d: unknown age category %q", i, sel.AgeCategory)
		}
		if !sel.AgeCategory.Allows(sel.MealChoice) {
			return invalidInput("selection %d: %q is not available for %s", i, sel.MealChoice, sel.AgeCategory)
		}
		counts[sel.AgeCategory.Group()]++
	}

	under5, over5 := party.Count(models.GroupUnder5), party.Count(models.GroupOver5)
	if counts[models.GroupUnder5] != under5 || counts[models.GroupOver5] != over5 {
		return &IncompleteSelectionsError{
			WantUnder5: under5,
			GotUnder5:  counts[models.GroupUnder5],
			WantOver5:  over5,
			GotOver5:   counts[models.GroupOver5],
		}
	}
	return nil
}
