package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Handlers struct {
	Auth          *auth.AuthHandler
	Registrations *RegistrationHandler
	CheckIn       *CheckInHandler
	Meals         *MealHandler
	Backfill      *BackfillHandler
	APIKeys       *APIKeyHandler
}

var adminSecurity = []map[string][]string{
	{"cookieAuth": {}},
	{"bearerAuth": {}},
	{"apiKeyAuth": {}},
}

func admin(o *huma.Operation) {
	o.Security = adminSecurity
	o.Tags = append(o.Tags, "admin")
}

func RegisterRoutes(r *chi.Mux, h Handlers) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Auth.SessionRefresh)

	// Initialize Huma API
	config := huma.DefaultConfig("RSVP Check-in API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
		"bearerAuth": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-KEY",
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Discord login redirects and sets cookies itself.
	r.Get("/auth/discord/login", h.Auth.HandleLogin)
	r.Get("/auth/discord/callback", h.Auth.HandleCallback)

	RegisterOperations(api, h)
	return api
}

// RegisterOperations adds every API operation to api.
func RegisterOperations(api huma.API, h Handlers) {
	// Public
	huma.Post(api, "/auth/login", h.Auth.HandlePasswordLogin, func(o *huma.Operation) {
		o.Summary = "Admin password login"
	})
	huma.Register(api, huma.Operation{
		OperationID:   "create-registration",
		Method:        http.MethodPost,
		Path:          "/registrations",
		Summary:       "Register a party for the event",
		DefaultStatus: http.StatusCreated,
	}, h.Registrations.HandleRegister)
	huma.Get(api, "/checkin/{code}", h.CheckIn.HandleLookup)
	huma.Post(api, "/checkin/{code}", h.CheckIn.HandleCheckIn)
	huma.Get(api, "/meals/{token}", h.Meals.HandleVerify)
	huma.Post(api, "/meals/{token}", h.Meals.HandleSubmit)

	// Admin
	huma.Get(api, "/me", h.Auth.HandleMe, admin)
	huma.Get(api, "/admin/stats", h.Registrations.HandleStats, admin)
	huma.Get(api, "/admin/registrations", h.Registrations.HandleList, admin)
	huma.Get(api, "/admin/registrations/{id}", h.Registrations.HandleGet, admin)
	huma.Delete(api, "/admin/registrations/{id}", h.Registrations.HandleDelete, admin)
	huma.Patch(api, "/admin/registrations/{id}/payment", h.Registrations.HandleUpdatePayment, admin)
	huma.Put(api, "/admin/registrations/{id}/meal-deadline", h.Registrations.HandleUpdateMealDeadline, admin)
	huma.Get(api, "/admin/registrations/{id}/history", h.Registrations.HandleHistory, admin)
	huma.Delete(api, "/admin/checkin/{code}", h.CheckIn.HandleUndo, admin)
	huma.Get(api, "/admin/backfill/{kind}", h.Backfill.HandleStatus, admin)
	huma.Post(api, "/admin/backfill/{kind}", h.Backfill.HandleRun, admin)

	huma.Post(api, "/admin/api-keys", h.APIKeys.HandleCreate, admin)
	huma.Get(api, "/admin/api-keys", h.APIKeys.HandleList, admin)
	huma.Delete(api, "/admin/api-keys/{id}", h.APIKeys.HandleRevoke, admin)
}
