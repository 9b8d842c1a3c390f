package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type PasswordLoginInput struct {
	Body struct {
		Username string `json:"username" minLength:"1"`
		Password string `json:"password" minLength:"1"`
	}
}

type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
}

// HandlePasswordLogin checks the configured admin credentials and starts a
// session for the matching admin record.
func (h *AuthHandler) HandlePasswordLogin(ctx context.Context, input *PasswordLoginInput) (*LoginOutput, error) {
	if h.cfg.AdminUsername == "" || h.cfg.AdminPasswordHash == "" {
		return nil, huma.Error401Unauthorized("Password login is disabled")
	}

	userOK := subtle.ConstantTimeCompare([]byte(input.Body.Username), []byte(h.cfg.AdminUsername)) == 1
	passErr := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPasswordHash), []byte(input.Body.Password))
	if !userOK || passErr != nil {
		zap.L().Warn("admin password login rejected", zap.String("username", input.Body.Username))
		return nil, huma.Error401Unauthorized("Invalid username or password")
	}

	var admin models.Admin
	err := h.db.WithContext(ctx).
		Where("username = ? AND discord_id IS NULL", h.cfg.AdminUsername).
		Attrs(models.Admin{Username: h.cfg.AdminUsername}).
		FirstOrCreate(&admin).Error
	if err != nil {
		zap.L().Error("failed to load password admin", zap.Error(err))
		return nil, huma.Error500InternalServerError("Database error")
	}

	return h.login(admin)
}

func (h *AuthHandler) login(admin models.Admin) (*LoginOutput, error) {
	token, err := h.GenerateToken(admin.ID)
	if err != nil {
		zap.L().Error("failed to generate token", zap.Error(err))
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	out := &LoginOutput{SetCookie: h.sessionCookie(token)}
	out.Body.Token = token
	out.Body.ExpiresAt = out.SetCookie.Expires
	zap.L().Info("admin logged in", zap.Uint("admin_id", admin.ID), zap.String("username", admin.Username))
	return out, nil
}
