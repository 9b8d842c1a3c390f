package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/database"
	"github.com/gdg-garage/rsvp-checkin-api/internal/models"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var eventDeadline = time.Date(2026, 1, 12, 22, 0, 0, 0, time.UTC)

func setupStore(t *testing.T) (*repository.RegistrationRepository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return repository.NewRegistrationRepository(db), db
}

// scriptedTokens hands out the queued values in order, then falls back to
// a counter.
type scriptedTokens struct {
	mu    sync.Mutex
	queue []string
	n     int
	err   error
}

func (g *scriptedTokens) Generate(kind token.Kind) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	if len(g.queue) > 0 {
		tok := g.queue[0]
		g.queue = g.queue[1:]
		return tok, nil
	}
	g.n++
	if kind == token.KindCheckInCode {
		return fmt.Sprintf("TEST-%04d", g.n), nil
	}
	return fmt.Sprintf("%032d", g.n), nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	registered []string
	paid       []string
	checkedIn  []string
	fail       bool
}

func (n *recordingNotifier) record(list *[]string, reg models.Registration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	*list = append(*list, reg.ID)
	if n.fail {
		return errors.New("notifier down")
	}
	return nil
}

func (n *recordingNotifier) NotifyRegistration(reg models.Registration) error {
	return n.record(&n.registered, reg)
}

func (n *recordingNotifier) NotifyPaymentConfirmed(reg models.Registration) error {
	return n.record(&n.paid, reg)
}

func (n *recordingNotifier) NotifyCheckIn(reg models.Registration) error {
	return n.record(&n.checkedIn, reg)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string { return &s }

// seedRegistration inserts a registration directly, bypassing the service.
func seedRegistration(t *testing.T, db *gorm.DB, reg models.Registration) models.Registration {
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
