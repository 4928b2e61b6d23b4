package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Path resolves the configuration file from CONFIG_PATH. Without it the
// default is /config/config.yaml, or ./config/config.yaml when LOCAL=true.
// In local mode a .env file in the working directory is loaded first, so it
// may set CONFIG_PATH itself.
func Path() string {
	if os.Getenv("LOCAL") == "true" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if os.Getenv("LOCAL") == "true" {
		return "./config/config.yaml"
	}

	return "/config/config.yaml"
}
