package handlers

import (
	"net/http"
	"testing"

	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndMarkPaid(t *testing.T) {
	env := setupAPI(t)

	resp := env.api.Post("/registrations", map[string]any{
		"name":      "Khan Family",
		"phone":     "07700900123",
		"email":     "khan@example.com",
		"under5":    1,
		"age5to12":  2,
		"age12plus": 0,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decode[struct {
		ID            string `json:"id"`
		TotalAmount   int    `json:"total_amount"`
		PaymentStatus string `json:"payment_status"`
	}](t, resp)
	assert.Equal(t, 20, created.TotalAmount)
	assert.Equal(t, "pending", created.PaymentStatus)

	resp = env.api.Get("/admin/registrations/" + created.ID)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.api.Get("/admin/registrations/"+created.ID, env.bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view := decode[RegistrationView](t, resp)
	assert.Empty(t, view.CheckInCode)
	assert.Empty(t, view.CheckInURL)
	assert.Equal(t, 3, view.Party.Headcount)
	assert.Equal(t, 2, view.Party.Over5)

	resp = env.api.Patch("/admin/registrations/"+created.ID+"/payment", env.bearer, map[string]any{
		"payment_status": "paid",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view = decode[RegistrationView](t, resp)
	assert.Equal(t, models.PaymentPaid, view.PaymentStatus)
	assert.Regexp(t, `^RSVP-[0-9A-Z]+$`, view.CheckInCode)
	assert.Equal(t, "https://rsvp.example.org/checkin/"+view.CheckInCode, view.CheckInURL)

	resp = env.api.Get("/admin/registrations/"+created.ID+"/history", env.bearer)
	require.Equal(t, http.StatusOK, resp.Code)
	history := decode[[]HistoryEntry](t, resp)
	require.NotEmpty(t, history)
	var actors []string
	for _, h := range history {
		actors = append(actors, h.Actor)
	}
	assert.Contains(t, actors, "organiser")
}

func TestRegisterValidation(t *testing.T) {
	env := setupAPI(t)

	resp := env.api.Post("/registrations", map[string]any{
		"name": "Nobody", "phone": "07700900123", "under5": 0, "age5to12": 0, "age12plus": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.api.Post("/registrations", map[string]any{
		"name": "Bad Email", "phone": "07700900123", "email": "nope", "under5": 0, "age5to12": 0, "age12plus": 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = env.api.Post("/registrations", map[string]any{
		"name": "Negative", "phone": "07700900123", "under5": -1, "age5to12": 0, "age12plus": 1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestListRegistrations(t *testing.T) {
	env := setupAPI(t)
	seed(t, env.db, models.Registration{Name: "Charlie", PaymentStatus: models.PaymentPaid, PartyComposition: models.PartyComposition{Age12Plus: 3}})
	seed(t, env.db, models.Registration{Name: "alpha", Email: "alpha@example.com", PartyComposition: models.PartyComposition{Age12Plus: 1}})
	seed(t, env.db, models.Registration{Name: "Bravo", PaymentStatus: models.PaymentPaid, CheckedIn: true, PartyComposition: models.PartyComposition{Age5To12: 1}})

	list := func(query string) []string {
		t.Helper()
		resp := env.api.Get("/admin/registrations"+query, env.bearer)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		out := decode[struct {
			Count         int                `json:"count"`
			Registrations []RegistrationView `json:"registrations"`
		}](t, resp)
		var names []string
		for _, r := range out.Registrations {
			names = append(names, r.Name)
		}
		assert.Equal(t, out.Count, len(names))
		return names
	}

	assert.Equal(t, []string{"alpha", "Bravo", "Charlie"}, list("?sort=name"))
	assert.Equal(t, []string{"Charlie", "Bravo"}, list("?payment_status=paid&sort=total_amount&order=desc"))
	assert.Equal(t, []string{"Bravo"}, list("?checked_in=true"))
	assert.Equal(t, []string{"alpha"}, list("?q=ALPHA@"))

	resp := env.api.Get("/admin/registrations?payment_status=refunded", env.bearer)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestUpdatePaymentUnknownRegistration(t *testing.T) {
	env := setupAPI(t)
	resp := env.api.Patch("/admin/registrations/missing/payment", env.bearer, map[string]any{"payment_status": "paid"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, registrationNotFound, decodeError(t, resp).Detail)
}

func TestDeleteRegistration(t *testing.T) {
	env := setupAPI(t)
	reg := seed(t, env.db, models.Registration{})

	resp := env.api.Delete("/admin/registrations/" + reg.ID)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = env.api.Delete("/admin/registrations/"+reg.ID, env.bearer)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	_, err := env.store.FindByID(t.Context(), reg.ID)
	assert.ErrorIs(t, err, repository.ErrRegistrationNotFound)

	resp = env.api.Delete("/admin/registrations/"+reg.ID, env.bearer)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateMealDeadline(t *testing.T) {
	env := setupAPI(t)
	reg := seed(t, env.db, models.Registration{})

	resp := env.api.Put("/admin/registrations/"+reg.ID+"/meal-deadline", env.bearer, map[string]any{
		"deadline": "2026-01-14T12:00:00Z",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	view := decode[RegistrationView](t, resp)
	require.NotNil(t, view.MealSelectionDeadline)
	assert.Equal(t, "2026-01-14T12:00:00Z", view.MealSelectionDeadline.UTC().Format("2006-01-02T15:04:05Z07:00"))
}

func TestStats(t *testing.T) {
	env := setupAPI(t)
	seed(t, env.db, models.Registration{PaymentStatus: models.PaymentPaid, PartyComposition: models.PartyComposition{Under5: 1, Age5To12: 2}})
	seed(t, env.db, models.Registration{PartyComposition: models.PartyComposition{Age12Plus: 2}})

	resp := env.api.Get("/admin/stats", env.bearer)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stats := decode[repository.Stats](t, resp)
	assert.Equal(t, int64(2), stats.Registrations)
	assert.Equal(t, int64(1), stats.Paid)
	assert.Equal(t, int64(20), stats.AmountPaid)
	assert.Equal(t, int64(1), stats.PaidWithoutCode)
}
