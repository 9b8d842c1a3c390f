package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

const DefaultMealSelectionDeadline = "2026-01-12T22:00:00Z"

type Config struct {
	Port                          string   `mapstructure:"PORT"`
	Environment                   string   `mapstructure:"ENVIRONMENT"`
	DatabaseDriver                string   `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string   `mapstructure:"DATABASE_PATH"`
	DatabaseURL                   string   `mapstructure:"DATABASE_URL"`
	JWTSecret                     string   `mapstructure:"JWT_SECRET"`
	AdminUsername                 string   `mapstructure:"ADMIN_USERNAME"`
	AdminPasswordHash             string   `mapstructure:"ADMIN_PASSWORD_HASH"`
	DiscordClientID               string   `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string   `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string   `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordGuildID                string   `mapstructure:"DISCORD_GUILD_ID"`
	DiscordBotToken               string   `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string   `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	AdminDiscordIDs               []string `mapstructure:"ADMIN_DISCORD_IDS"`
	AMQPURL                       string   `mapstructure:"AMQP_URL"`
	AMQPExchange                  string   `mapstructure:"AMQP_EXCHANGE"`
	PublicURL                     string   `mapstructure:"PUBLIC_URL"`
	CheckInCodePrefix             string   `mapstructure:"CHECKIN_CODE_PREFIX"`
	MealSelectionDeadline         string   `mapstructure:"MEAL_SELECTION_DEADLINE"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "rsvp.db")
	viper.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	viper.SetDefault("AMQP_EXCHANGE", "rsvp.events")
	viper.SetDefault("PUBLIC_URL", "http://127.0.0.1:8080")
	viper.SetDefault("CHECKIN_CODE_PREFIX", "RSVP")
	viper.SetDefault("MEAL_SELECTION_DEADLINE", DefaultMealSelectionDeadline)

	viper.BindEnv("DATABASE_URL")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("ADMIN_USERNAME")
	viper.BindEnv("ADMIN_PASSWORD_HASH")
	viper.BindEnv("DISCORD_CLIENT_ID")
	viper.BindEnv("DISCORD_CLIENT_SECRET")
	viper.BindEnv("DISCORD_GUILD_ID")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("ADMIN_DISCORD_IDS")
	viper.BindEnv("AMQP_URL")

	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("Unable to read config file, %v", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration, %v", err)
	}

	return &config
}

// Validate rejects values that would otherwise be replaced by defaults
// without anyone noticing.
func (c *Config) Validate() error {
	if c.MealSelectionDeadline != "" {
		if _, err := time.Parse(time.RFC3339, c.MealSelectionDeadline); err != nil {
			return fmt.Errorf("MEAL_SELECTION_DEADLINE must be RFC3339: %w", err)
		}
	}
	return nil
}

// MealDeadline returns the configured deadline, or the default event
// deadline when none is set. LoadConfig has already rejected malformed
// values.
func (c *Config) MealDeadline() time.Time {
	if t, err := time.Parse(time.RFC3339, c.MealSelectionDeadline); err == nil {
		return t
	}
	t, _ := time.Parse(time.RFC3339, DefaultMealSelectionDeadline)
	return t
}
