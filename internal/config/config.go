// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the watchlist server.
type Config struct {
	Port          int
	DBPath        string
	JWTSecret     string
	TokenTTLHours int
	AdminToken    string // empty = admin endpoints disabled
	TMDB          TMDBConfig
}

// TMDBConfig holds the movie metadata provider configuration.
// An empty APIKey disables the /movies/search proxy.
type TMDBConfig struct {
	APIKey  string
	BaseURL string
}

// Load reads configuration from environment variables.
//
// A .env file in the working directory is loaded first if present, so local
// development doesn't need exported variables. Real environment variables
// win over .env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}
	ttl, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:          port,
		DBPath:        getEnv("DB_PATH", "data/watchlist.db"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		TokenTTLHours: ttl,
		AdminToken:    os.Getenv("ADMIN_TOKEN"),
		TMDB: TMDBConfig{
			APIKey:  os.Getenv("TMDB_API_KEY"),
			BaseURL: getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
