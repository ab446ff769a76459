package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Data backends the server can run on.
const (
	BackendPgsql  = "pgsql"
	BackendMemory = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	DataBackend   string
	RateLimit     string
	CORSOrigins   []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("DATA_BACKEND", BackendPgsql)
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ORIGINS", "*")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:   viper.GetString("PGSQL_URL"),
		Port:          viper.GetString("PORT"),
		IsProduction:  viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck: viper.GetBool("ENABLE_DB_CHECK"),
		DataBackend:   strings.ToLower(viper.GetString("DATA_BACKEND")),
		RateLimit:     viper.GetString("RATE_LIMIT"),
		CORSOrigins:   strings.Split(viper.GetString("CORS_ORIGINS"), ","),
	}

	switch cfg.DataBackend {
	case BackendPgsql:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case BackendMemory:
		// No database needed; the ledger lives in process memory.
	default:
		return nil, fmt.Errorf("unknown DATA_BACKEND %q (want %s or %s)", cfg.DataBackend, BackendPgsql, BackendMemory)
	}

	return cfg, nil
}
