package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/rsvp-checkin-api/internal/auth"
	"github.com/gdg-garage/rsvp-checkin-api/internal/config"
	"github.com/gdg-garage/rsvp-checkin-api/internal/database"
	"github.com/gdg-garage/rsvp-checkin-api/internal/handlers"
	"github.com/gdg-garage/rsvp-checkin-api/internal/logger"
	"github.com/gdg-garage/rsvp-checkin-api/internal/notifier"
	"github.com/gdg-garage/rsvp-checkin-api/internal/repository"
	"github.com/gdg-garage/rsvp-checkin-api/internal/service"
	"github.com/gdg-garage/rsvp-checkin-api/internal/token"
	"github.com/go-chi/chi/v5"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zap.L().Sync()

	if cfg.JWTSecret == "" {
		zap.L().Fatal("JWT_SECRET must be set")
	}

	// Connect to Database
	db, err := database.Connect(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}

	notifiers := buildNotifiers(cfg)

	store := repository.NewRegistrationRepository(db)
	gen := token.NewGenerator(cfg.CheckInCodePrefix)

	authHandler := auth.NewAuthHandler(cfg, db)
	h := handlers.Handlers{
		Auth: authHandler,
		Registrations: handlers.NewRegistrationHandler(
			service.NewRegistrationService(store, gen, notifiers), authHandler, handlers.NewLinks(cfg.PublicURL)),
		CheckIn:  handlers.NewCheckInHandler(service.NewCheckInService(store, notifiers), authHandler),
		Meals:    handlers.NewMealHandler(service.NewMealService(store)),
		Backfill: handlers.NewBackfillHandler(service.NewBackfillService(store, gen, cfg.MealDeadline()), authHandler),
		APIKeys:  handlers.NewAPIKeyHandler(repository.NewAPIKeyRepository(db), authHandler),
	}

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, h)

	// Start Server
	zap.L().Info("Starting server", zap.String("port", cfg.Port), zap.String("database", cfg.DatabaseDriver))
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		zap.L().Fatal("Failed to start server", zap.Error(err))
	}
}

func buildNotifiers(cfg *config.Config) notifier.Multi {
	var notifiers notifier.Multi

	if cfg.DiscordBotToken != "" && cfg.DiscordNotificationsChannelID != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			zap.L().Warn("Discord notifier not initialized", zap.Error(err))
		} else {
			notifiers = append(notifiers, notifier.NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID))
		}
	}

	if cfg.AMQPURL != "" {
		amqpNotifier, err := notifier.DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			zap.L().Warn("AMQP notifier not initialized", zap.Error(err))
		} else {
			notifiers = append(notifiers, amqpNotifier)
		}
	}

	return notifiers
}
