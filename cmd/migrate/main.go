package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/config"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/pkg/logger"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	timeout := flag.Duration("timeout", time.Minute, "overall migration timeout")
	flag.Parse()

	_ = godotenv.Load()
	logger.Init(getEnv("APP_ENV", "development"), getEnv("LOG_LEVEL", "info"))

	dbCfg, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load database config")
	}

	sqlDB, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer sqlDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Str("host", dbCfg.Host).Msg("Failed to reach database")
	}

	switch *direction {
	case "up":
		err = database.CreateSchema(ctx, sqlDB)
	case "down":
		err = database.DropSchema(ctx, sqlDB)
	default:
		log.Fatal().Str("direction", *direction).Msg("Unknown migration direction, expected up or down")
	}
	if err != nil {
		log.Fatal().Err(err).Str("direction", *direction).Msg("Migration failed")
	}

	log.Info().Str("direction", *direction).Str("database", dbCfg.DBName).Msg("Migration completed")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
