package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// AppConfig holds all service settings, populated from environment
// variables with the OUCH_ prefix (plus optional .env file).
type AppConfig struct {
	// OpenWeatherMap One Call API key.
	OWAPIKey string

	// Coordinates of the tracked location.
	Lat float64 `validate:"latitude"`
	Lon float64 `validate:"longitude"`

	// SQLite database file path.
	DBPath string

	Host     string
	Port     string
	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
// Required keys that are missing are reported together, by name.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		OWAPIKey: os.Getenv("OUCH_OW_API_KEY"),
		DBPath:   getenvDefault("OUCH_DB_PATH", "data/data.db"),
		Host:     getenvDefault("HOST", "127.0.0.1"),
		Port:     getenvDefault("PORT", "8000"),
		LogLevel: getenvDefault("LOG_LEVEL", "info"),
	}

	var missing []string
	if cfg.OWAPIKey == "" {
		missing = append(missing, "ow_api_key")
	}

	lat, ok, err := getenvFloat("OUCH_LAT")
	if err != nil {
		return nil, err
	}
	if !ok {
		missing = append(missing, "lat")
	}
	cfg.Lat = lat

	lon, ok, err := getenvFloat("OUCH_LON")
	if err != nil {
		return nil, err
	}
	if !ok {
		missing = append(missing, "lon")
	}
	cfg.Lon = lon

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid coordinates: %w", err)
	}

	return cfg, nil
}

// Addr returns the host:port pair the HTTP server should listen on.
func (c *AppConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string) (float64, bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, true, nil
}
