package auth

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const stateCookieName = "oauth_state"

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}
	state := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  h.now().Add(10 * time.Minute),
		HttpOnly: true,
		Path:     "/auth/discord",
		SameSite: http.SameSiteLaxMode,
	})

	url := h.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleCallback finishes the Discord login. Only members of the configured
// guild get in, and when an allow-list is configured only those on it.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "Invalid login state", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		zap.L().Warn("discord token exchange failed", zap.Error(err))
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(ctx, token)

	if h.cfg.DiscordGuildID != "" {
		var guilds []struct {
			ID string `json:"id"`
		}
		if err := getJSON(client, h.guildsAPI, &guilds); err != nil {
			zap.L().Warn("failed to get discord guilds", zap.Error(err))
			http.Error(w, "Failed to get user guilds", http.StatusInternalServerError)
			return
		}

		isMember := false
		for _, g := range guilds {
			if g.ID == h.cfg.DiscordGuildID {
				isMember = true
				break
			}
		}

		if !isMember {
			http.Error(w, "Access denied: You are not a member of the required guild.", http.StatusForbidden)
			return
		}
	}

	var du discordUser
	if err := getJSON(client, h.userAPI, &du); err != nil {
		zap.L().Warn("failed to get discord user", zap.Error(err))
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	if len(h.cfg.AdminDiscordIDs) > 0 && !slices.Contains(h.cfg.AdminDiscordIDs, du.ID) {
		zap.L().Warn("discord user not on admin allow-list", zap.String("discord_id", du.ID))
		http.Error(w, "Access denied: You are not an event admin.", http.StatusForbidden)
		return
	}

	var admin models.Admin
	if err := h.db.WithContext(ctx).FirstOrInit(&admin, models.Admin{DiscordID: &du.ID}).Error; err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	admin.Username = du.Username
	admin.Email = du.Email
	admin.Avatar = du.Avatar

	if err := h.db.WithContext(ctx).Save(&admin).Error; err != nil {
		http.Error(w, "Failed to save admin", http.StatusInternalServerError)
		return
	}

	out, err := h.login(admin)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &out.SetCookie)
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/auth/discord", MaxAge: -1})

	w.Write([]byte(fmt.Sprintf("Welcome %s! You are logged in.", admin.Username)))
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
