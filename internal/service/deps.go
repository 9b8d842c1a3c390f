package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	"go.uber.org/zap"
)

// maxTokenAttempts bounds how often a token is regenerated after hitting
// the unique constraint.
const maxTokenAttempts = 5

type TokenGenerator interface {
	Generate(kind token.Kind) (string, error)
}

type HistoryStore interface {
	AppendHistory(ctx context.Context, entry *models.RegistrationHistory) error
}

type CodeAssigner interface {
	AssignCheckInCode(ctx context.Context, id, code string) (bool, error)
}

func recordHistory(ctx context.Context, store HistoryStore, registrationID string, action models.HistoryAction, actor, detail string) {
	entry := &models.RegistrationHistory{
		RegistrationID: registrationID,
		Action:         action,
		Actor:          actor,
		Detail:         detail,
	}
	if err := store.AppendHistory(ctx, entry); err != nil {
		zap.L().Warn("failed to record registration history",
			zap.String("registration_id", registrationID),
			zap.String("action", string(action)),
			zap.Error(err))
	}
}

// assignToken generates tokens until one is accepted by the store. assign
// returns false when the registration no longer qualifies, in which case
// ("", nil) is returned.
func assignToken(gen TokenGenerator, kind token.Kind, assign func(tok string) (bool, error)) (string, error) {
	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		tok, err := gen.Generate(kind)
		if err != nil {
			return "", fmt.Errorf("gen.Generate -> %w", err)
		}

		ok, err := assign(tok)
		if errors.Is(err, repository.ErrDuplicateToken) {
			zap.L().Warn("generated token collided, regenerating",
				zap.String("kind", string(kind)),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}
		return tok, nil
	}
	return "", fmt.Errorf("no unique %s after %d attempts: %w", kind, maxTokenAttempts, repository.ErrDuplicateToken)
}

// ensureCheckInCode assigns a code to a paid registration unless it
// already has one.
func ensureCheckInCode(ctx context.Context, store CodeAssigner, gen TokenGenerator, id string) (string, error) {
	return assignToken(gen, token.KindCheckInCode, func(code string) (bool, error) {
		return store.AssignCheckInCode(ctx, id, code)
	})
}

// notifyOrLog runs a notification and logs instead of failing the caller.
func notifyOrLog(what string, reg models.Registration, fn func(models.Registration) error) {
	if err := fn(reg); err != nil {
		zap.L().Warn("notification failed",
			zap.String("notification", what),
			zap.String("registration_id", reg.ID),
			zap.Error(err))
	}
}
