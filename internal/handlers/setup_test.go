package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/gdg-garage/rsvp-checkin-api/internal/config"
	"github.com/gdg-garage/rsvp-checkin-api/internal/database"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	api      humatest.TestAPI
	db       *gorm.DB
	store    *repository.RegistrationRepository
	admin    models.Admin
	bearer   string
	deadline string
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		JWTSecret:             "test-secret",
		PublicURL:             "https://rsvp.example.org/",
		MealSelectionDeadline: config.DefaultMealSelectionDeadline,
	}
	store := repository.NewRegistrationRepository(db)
	gen := token.NewGenerator("RSVP")
	authHandler := auth.NewAuthHandler(cfg, db)
	links := NewLinks(cfg.PublicURL)

	h := Handlers{
		Auth:          authHandler,
		Registrations: NewRegistrationHandler(service.NewRegistrationService(store, gen, nil), authHandler, links),
		CheckIn:       NewCheckInHandler(service.NewCheckInService(store, nil), authHandler),
		Meals:         NewMealHandler(service.NewMealService(store)),
		Backfill:      NewBackfillHandler(service.NewBackfillService(store, gen, cfg.MealDeadline()), authHandler),
		APIKeys:       NewAPIKeyHandler(repository.NewAPIKeyRepository(db), authHandler),
	}

	_, api := humatest.New(t)
	RegisterOperations(api, h)

	admin := models.Admin{Username: "organiser"}
	require.NoError(t, db.Create(&admin).Error)
	jwt, err := authHandler.GenerateToken(admin.ID)
	require.NoError(t, err)

	return &testEnv{
		api:      api,
		db:       db,
		store:    store,
		admin:    admin,
		bearer:   "Authorization: Bearer " + jwt,
		deadline: cfg.MealSelectionDeadline,
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) huma.ErrorModel {
	t.Helper()
	return decode[huma.ErrorModel](t, resp)
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, db *gorm.DB, reg models.Registration) models.Registration {
	t.Helper()
	if reg.Name == "" {
		reg.Name = "Test Family"
	}
	if reg.Phone == "" {
		reg.Phone = "07700900000"
	}
	require.NoError(t, db.Create(&reg).Error)
	return reg
}
