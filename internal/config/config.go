package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultTimeout bounds connect+ping when no MONGO_DB_TIMEOUT is set.
const DefaultTimeout = 10 * time.Second

// ErrUnset is returned when the environment fallback is incomplete.
var ErrUnset = errors.New("MONGO_DB_CONNECTION_STRING and MONGO_DB_NAME must both be set")

// Config is the connection configuration resolved from the environment.
type Config struct {
	ConnectionString string
	Database         string
	Timeout          time.Duration
}

// FromEnv resolves the connection settings from environment variables and an
// optional .env file. Used only when InitDB was never called.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()
	viper.SetDefault("MONGO_DB_TIMEOUT", 10)

	cfg := &Config{
		ConnectionString: viper.GetString("MONGO_DB_CONNECTION_STRING"),
		Database:         viper.GetString("MONGO_DB_NAME"),
		Timeout:          time.Duration(viper.GetInt("MONGO_DB_TIMEOUT")) * time.Second,
	}
	if cfg.ConnectionString == "" || cfg.Database == "" {
		return nil, ErrUnset
	}
	return cfg, nil
}
