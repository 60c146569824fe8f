package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	RedisURL       string
	PostgresURL    string
	WordsFile      string
	AllowedOrigins []string
	Debug          bool
}

// Load reads configuration from the environment, with a .env file as a
// development convenience. Only REDIS_URL has no usable default; main warns
// and falls back to the in-memory store when it is absent.
func Load() Config {
	godotenv.Load()

	cfg := Config{
		Port:        getenv("PORT", "3001"),
		RedisURL:    os.Getenv("REDIS_URL"),
		PostgresURL: os.Getenv("POSTGRES_URL"),
		WordsFile:   os.Getenv("WORDS_FILE"),
		Debug:       os.Getenv("DEBUG") == "true",
	}

	origins := getenv("ALLOWED_ORIGINS", "http://localhost:5173")
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
		}
	}

	return cfg
}

func getenv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
