// Command backfill assigns missing check-in codes or meal tokens to paid
// registrations. It is safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdg-garage/rsvp-checkin-api/internal/config"
	"github.com/gdg-garage/rsvp-checkin-api/internal/database"
	"github.com/gdg-garage/rsvp-checkin-api/internal/logger"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

const actor = "backfill-cli"

func main() {
	kind := flag.String("kind", string(token.KindCheckInCode), "token kind to backfill: checkin-codes or meal-tokens")
	statusOnly := flag.Bool("status", false, "only report how many registrations need a token")
	timeout := flag.Duration("timeout", 5*time.Minute, "maximum run time")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zap.L().Sync()

	k := token.Kind(*kind)
	if !k.Valid() {
		zap.L().Fatal("unknown token kind", zap.String("kind", *kind))
	}

	db, err := database.Connect(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}

	svc := service.NewBackfillService(
		repository.NewRegistrationRepository(db),
		token.NewGenerator(cfg.CheckInCodePrefix),
		cfg.MealDeadline(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = runWithTimeout(ctx, *timeout, func(ctx context.Context) error {
		counts, err := svc.Status(ctx, k)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d need a token, %d have one\n", k, counts.Needing, counts.Have)
		if *statusOnly {
			return nil
		}

		res, err := svc.Run(ctx, k, actor)
		fmt.Printf("%s: updated %d, failed %d\n", k, res.Updated, res.Failed)
		if err != nil {
			return err
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d registrations could not be updated, re-run to retry", res.Failed)
		}
		return nil
	})
	if err != nil {
		zap.L().Error("backfill failed", zap.Error(err))
		os.Exit(1)
	}
}

// runWithTimeout runs fn with a deadline and reports a timeout distinctly
// from other failures.
func runWithTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := fn(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", timeout, err)
	}
	return err
}
