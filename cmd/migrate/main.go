package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-booking/internal/db"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "migrate").Logger()

	_ = godotenv.Load()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	direction := "up"
	if len(os.Args) > 1 {
		direction = os.Args[1]
	}

	switch direction {
	case "up":
		if err := db.MigrateUp(dsn); err != nil {
			logger.Fatal().Err(err).Msg("migrate up failed")
		}
		logger.Info().Msg("migrations applied")
	case "down":
		if err := db.MigrateDown(dsn); err != nil {
			logger.Fatal().Err(err).Msg("migrate down failed")
		}
		logger.Info().Msg("migrations rolled back")
	default:
		logger.Fatal().Str("direction", direction).Msg("usage: migrate [up|down]")
	}
}
