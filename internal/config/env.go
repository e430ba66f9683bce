package config

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// loadEnvFile loads environment variables from the first of .env and
// .env.local that exists. Variables already set in the process environment
// are not overwritten.
func loadEnvFile() error {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return err
		}
		slog.Debug("Loaded environment variables", slog.String("path", envPath))
		return nil
	}
	return errors.New("no .env file found")
}
