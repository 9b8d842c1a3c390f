package handlers

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"go.uber.org/zap"
)

// apiKeyPrefix makes scanner keys recognisable in logs and config files.
const apiKeyPrefix = "rsvp_"

type APIKeyHandler struct {
	keys        *repository.APIKeyRepository
	authHandler *auth.AuthHandler
}

func NewAPIKeyHandler(keys *repository.APIKeyRepository, authHandler *auth.AuthHandler) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, authHandler: authHandler}
}

type APIKeyView struct {
	ID         uint       `json:"id"`
	Label      string     `json:"label"`
	Hint       string     `json:"hint" doc:"Last characters of the key"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func newAPIKeyView(k models.APIKey) APIKeyView {
	return APIKeyView{
		ID:         k.ID,
		Label:      k.Label,
		Hint:       k.Hint(),
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
}

type CreateAPIKeyInput struct {
	auth.AuthInput
	Body struct {
		Label     string     `json:"label" doc:"Where the key is used, e.g. front door scanner" minLength:"1" maxLength:"100"`
		ExpiresAt *time.Time `json:"expires_at,omitempty" doc:"Optional expiry"`
	}
}

type CreateAPIKeyOutput struct {
	Status int
	Body   struct {
		APIKeyView
		Key string `json:"key" doc:"Shown once, store it on the device"`
	}
}

func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}
	if input.Body.ExpiresAt != nil && !input.Body.ExpiresAt.After(time.Now()) {
		return nil, huma.Error400BadRequest("expires_at must be in the future")
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate key")
	}

	apiKey := models.APIKey{
		AdminID:   admin.ID,
		Key:       apiKeyPrefix + hex.EncodeToString(raw),
		Label:     input.Body.Label,
		ExpiresAt: input.Body.ExpiresAt,
	}
	if err := h.keys.Create(ctx, &apiKey); err != nil {
		zap.L().Error("failed to create API key", zap.Uint("admin_id", admin.ID), zap.Error(err))
		return nil, huma.Error500InternalServerError("Failed to create API key")
	}
	zap.L().Info("api key issued", zap.Uint("admin_id", admin.ID), zap.String("label", apiKey.Label))

	out := &CreateAPIKeyOutput{Status: http.StatusCreated}
	out.Body.APIKeyView = newAPIKeyView(apiKey)
	out.Body.Key = apiKey.Key
	return out, nil
}

type ListAPIKeysOutput struct {
	Body []APIKeyView
}

func (h *APIKeyHandler) HandleList(ctx context.Context, input *auth.AuthInput) (*ListAPIKeysOutput, error) {
	admin, err := h.authHandler.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	keys, err := h.keys.ListByAdmin(ctx, admin.ID)
	if err != nil {
		zap.L().Error("failed to list API keys", zap.Uint("admin_id", admin.ID), zap.Error(err))
		return nil, huma.Error500InternalServerError("Failed to list API keys")
	}

	views := make([]APIKeyView, 0, len(keys))
	for _, k := range keys {
		views = append(views, newAPIKeyView(k))
	}
	return &ListAPIKeysOutput{Body: views}, nil
}

type RevokeAPIKeyInput struct {
	auth.AuthInput
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleRevoke(ctx context.Context, input *RevokeAPIKeyInput) (*struct{}, error) {
	admin, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	if err := h.keys.Revoke(ctx, input.ID, admin.ID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, huma.Error404NotFound("API key not found")
		}
		zap.L().Error("failed to revoke API key", zap.Uint("api_key_id", input.ID), zap.Error(err))
		return nil, huma.Error500InternalServerError("Failed to revoke API key")
	}
	return nil, nil
}
