package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Addr                 string
	StoreBackend         string // "file" or "postgres"
	StorePath            string
	DatabaseURL          string
	LockTTLSeconds       int
	LockWaitSeconds      int
	RoundDurationSeconds int
	DefaultMaxRounds     int
}

func Default() Config {
	return Config{
		Addr:                 ":8080",
		StoreBackend:         "file",
		StorePath:            "data/rooms.json",
		LockTTLSeconds:       10,
		LockWaitSeconds:      5,
		RoundDurationSeconds: 0,
		DefaultMaxRounds:     5,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("ADDR"); raw != "" {
		cfg.Addr = raw
	}
	if raw := os.Getenv("STORE_BACKEND"); raw != "" {
		cfg.StoreBackend = raw
	}
	if raw := os.Getenv("STORE_PATH"); raw != "" {
		cfg.StorePath = raw
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("LOCK_TTL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LockTTLSeconds = value
		}
	}
	if raw := os.Getenv("LOCK_WAIT_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LockWaitSeconds = value
		}
	}
	if raw := os.Getenv("ROUND_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RoundDurationSeconds = value
		}
	}
	if raw := os.Getenv("DEFAULT_MAX_ROUNDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DefaultMaxRounds = value
		}
	}
	return cfg
}
