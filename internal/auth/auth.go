package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/rsvp-checkin-api/internal/config"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"

	CookieName    = "auth_token"
	TokenDuration = 24 * time.Hour
)

var errInvalidToken = errors.New("invalid token")

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	apiKeys     *repository.APIKeyRepository
	cfg         *config.Config

	userAPI   string
	guildsAPI string
	now       func() time.Time
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:        db,
		apiKeys:   repository.NewAPIKeyRepository(db),
		cfg:       cfg,
		userAPI:   DiscordUserAPI,
		guildsAPI: DiscordUserGuildsAPI,
		now:       time.Now,
	}
}

// AuthInput carries the credentials an admin operation accepts. It is
// embedded into every protected operation's input.
type AuthInput struct {
	Cookie        string `header:"Cookie" doc:"Session cookie (auth_token)"`
	Authorization string `header:"Authorization" doc:"Bearer session token"`
	APIKey        string `header:"X-API-KEY" doc:"Admin API key"`
}

// Authorize resolves the calling admin from an API key, a bearer token or
// the session cookie, in that order.
func (h *AuthHandler) Authorize(ctx context.Context, in AuthInput) (models.Admin, error) {
	if in.APIKey != "" {
		return h.authorizeAPIKey(ctx, in.APIKey)
	}

	tokenString := bearerToken(in.Authorization)
	if tokenString == "" {
		tokenString = cookieValue(in.Cookie, CookieName)
	}
	if tokenString == "" {
		return models.Admin{}, huma.Error401Unauthorized("Unauthorized: no credentials")
	}

	claims, err := h.parseToken(tokenString)
	if err != nil {
		return models.Admin{}, huma.Error401Unauthorized("Unauthorized: invalid token")
	}
	adminID, ok := claims["admin_id"].(float64)
	if !ok {
		return models.Admin{}, huma.Error401Unauthorized("Unauthorized: invalid token claims")
	}

	var admin models.Admin
	if err := h.db.WithContext(ctx).First(&admin, uint(adminID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Admin{}, huma.Error401Unauthorized("Unauthorized: unknown admin")
		}
		zap.L().Error("failed to load admin", zap.Error(err))
		return models.Admin{}, huma.Error500InternalServerError("Database error")
	}
	return admin, nil
}

func (h *AuthHandler) authorizeAPIKey(ctx context.Context, key string) (models.Admin, error) {
	apiKey, err := h.apiKeys.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return models.Admin{}, huma.Error401Unauthorized("Unauthorized: invalid API key")
		}
		zap.L().Error("failed to load API key", zap.Error(err))
		return models.Admin{}, huma.Error500InternalServerError("Database error")
	}

	now := h.now()
	if apiKey.Expired(now) {
		return models.Admin{}, huma.Error401Unauthorized("Unauthorized: API key expired")
	}
	if apiKey.Admin.ID == 0 {
		return models.Admin{}, huma.Error401Unauthorized("Unauthorized: unknown admin")
	}

	if err := h.apiKeys.Touch(ctx, apiKey.ID, now); err != nil {
		zap.L().Warn("failed to stamp API key usage", zap.Uint("api_key_id", apiKey.ID), zap.Error(err))
	}
	return apiKey.Admin, nil
}

func (h *AuthHandler) GenerateToken(adminID uint) (string, error) {
	if h.cfg.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret is not configured")
	}
	now := h.now()
	claims := jwt.MapClaims{
		"admin_id": adminID,
		"iat":      now.Unix(),
		"exp":      now.Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) parseToken(tokenString string) (jwt.MapClaims, error) {
	if h.cfg.JWTSecret == "" {
		return nil, errInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	}, jwt.WithTimeFunc(h.now))
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}

func (h *AuthHandler) sessionCookie(token string) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  h.now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.Environment == "production",
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func cookieValue(header, name string) string {
	if header == "" {
		return ""
	}
	cookies, err := http.ParseCookie(header)
	if err != nil {
		return ""
	}
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

type MeOutput struct {
	Body struct {
		ID        uint   `json:"id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Avatar    string `json:"avatar"`
		DiscordID string `json:"discord_id,omitempty"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	admin, err := h.Authorize(ctx, *input)
	if err != nil {
		return nil, err
	}

	resp := &MeOutput{}
	resp.Body.ID = admin.ID
	resp.Body.Username = admin.Username
	resp.Body.Email = admin.Email
	resp.Body.Avatar = admin.Avatar
	if admin.DiscordID != nil {
		resp.Body.DiscordID = *admin.DiscordID
	}
	return resp, nil
}
