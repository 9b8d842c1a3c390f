package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	"go.uber.org/zap"
)

type BackfillStore interface {
	HistoryStore
	CodeAssigner
	AssignMealToken(ctx context.Context, id, token string, deadline time.Time) (bool, error)
	FindPaidWithoutCheckInCode(ctx context.Context) ([]models.Registration, error)
	FindPaidWithoutMealToken(ctx context.Context) ([]models.Registration, error)
	CountCheckInCodes(ctx context.Context) (repository.TokenCounts, error)
	CountMealTokens(ctx context.Context) (repository.TokenCounts, error)
}

type BackfillResult struct {
	Kind    token.Kind `json:"kind"`
	Updated int        `json:"updated"`
	Failed  int        `json:"failed"`
}

// BackfillService hands out missing check-in codes and meal tokens to paid
// registrations. Runs are idempotent: anything that already has a token is
// never selected.
type BackfillService struct {
	store        BackfillStore
	tokens       TokenGenerator
	mealDeadline time.Time
}

func NewBackfillService(store BackfillStore, tokens TokenGenerator, mealDeadline time.Time) *BackfillService {
	return &BackfillService{store: store, tokens: tokens, mealDeadline: mealDeadline.UTC()}
}

func (s *BackfillService) Status(ctx context.Context, kind token.Kind) (repository.TokenCounts, error) {
	var (
		counts repository.TokenCounts
		err    error
	)
	switch kind {
	case token.KindCheckInCode:
		counts, err = s.store.CountCheckInCodes(ctx)
	case token.KindMealToken:
		counts, err = s.store.CountMealTokens(ctx)
	default:
		return repository.TokenCounts{}, invalidInput("unknown token kind %q", kind)
	}
	if err != nil {
		return repository.TokenCounts{}, fmt.Errorf("s.store.Count -> %w", err)
	}
	return counts, nil
}

// Run processes every paid registration missing a token of the given kind,
// one at a time. A failing record is logged and skipped so a re-run only
// has the remainder left.
func (s *BackfillService) Run(ctx context.Context, kind token.Kind, actor string) (BackfillResult, error) {
	var (
		regs []models.Registration
		err  error
	)
	switch kind {
	case token.KindCheckInCode:
		regs, err = s.store.FindPaidWithoutCheckInCode(ctx)
	case token.KindMealToken:
		regs, err = s.store.FindPaidWithoutMealToken(ctx)
	default:
		return BackfillResult{}, invalidInput("unknown token kind %q", kind)
	}
	if err != nil {
		return BackfillResult{}, fmt.Errorf("s.store.FindPaidWithout -> %w", err)
	}

	zap.L().Info("backfill started", zap.String("kind", string(kind)), zap.Int("candidates", len(regs)))

	result := BackfillResult{Kind: kind}
	for _, reg := range regs {
		if err := ctx.Err(); err != nil {
			zap.L().Warn("backfill interrupted",
				zap.String("kind", string(kind)),
				zap.Int("updated", result.Updated),
				zap.Error(err))
			return result, err
		}

		tok, err := s.assign(ctx, kind, reg.ID)
		if err != nil {
			result.Failed++
			zap.L().Error("backfill record failed",
				zap.String("kind", string(kind)),
				zap.String("registration_id", reg.ID),
				zap.Error(err))
			continue
		}
		if tok == "" {
			// Someone else assigned it or the payment changed since selection.
			continue
		}

		result.Updated++
		action := models.ActionCheckInCode
		if kind == token.KindMealToken {
			action = models.ActionMealToken
		}
		recordHistory(ctx, s.store, reg.ID, action, actor, "backfill")
	}

	zap.L().Info("backfill finished",
		zap.String("kind", string(kind)),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *BackfillService) assign(ctx context.Context, kind token.Kind, id string) (string, error) {
	if kind == token.KindCheckInCode {
		return ensureCheckInCode(ctx, s.store, s.tokens, id)
	}
	return assignToken(s.tokens, kind, func(tok string) (bool, error) {
		return s.store.AssignMealToken(ctx, id, tok, s.mealDeadline)
	})
}
