// Package config reads settings from the environment, after loading a .env
// file when one is present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DoyleJ11/pokeguess-backend/internal/engine"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreDatabase = "database"
)

type Config struct {
	Port     string
	LogLevel string
	LogDev   bool

	DBDriver string
	DBURL    string
	DBLog    bool

	JWTSecret string
	JWTTTL    time.Duration

	AMQPURL      string
	AMQPExchange string

	// SessionStore is "memory" or "database".
	SessionStore string
	CodeTTL      time.Duration
	Rules        engine.Rules
}

// Load reads the configuration. Files that do not exist are skipped.
func Load(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []string
	fail := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s: %v", key, err))
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBURL:        getEnv("DATABASE_URL", "file:pokeguess.db?_foreign_keys=on"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "pokeguess.events"),
		SessionStore: getEnv("SESSION_STORE", StoreDatabase),
		Rules:        engine.DefaultRules(),
	}

	var err error
	if cfg.LogDev, err = getBool("LOG_DEV", false); err != nil {
		fail("LOG_DEV", err)
	}
	if cfg.DBLog, err = getBool("DB_LOG", false); err != nil {
		fail("DB_LOG", err)
	}
	if cfg.JWTTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		fail("JWT_TTL", err)
	}
	if cfg.CodeTTL, err = getDuration("CODE_TTL", 30*time.Minute); err != nil {
		fail("CODE_TTL", err)
	}
	if cfg.Rules.RoundSeconds, err = getFloat("ROUND_SECONDS", engine.DefaultRoundSeconds); err != nil {
		fail("ROUND_SECONDS", err)
	}
	if cfg.Rules.RareProbability, err = getFloat("RARE_PROBABILITY", engine.DefaultRareProbability); err != nil {
		fail("RARE_PROBABILITY", err)
	}
	if cfg.Rules.ResetTimerOnAdvance, err = getBool("RESET_TIMER_ON_ADVANCE", true); err != nil {
		fail("RESET_TIMER_ON_ADVANCE", err)
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET: required")
	}
	if cfg.SessionStore != StoreMemory && cfg.SessionStore != StoreDatabase {
		errs = append(errs, fmt.Sprintf("SESSION_STORE: unknown value %q", cfg.SessionStore))
	}
	if cfg.Rules.RoundSeconds <= 0 {
		errs = append(errs, "ROUND_SECONDS: must be positive")
	}
	if p := cfg.Rules.RareProbability; p < 0 || p > 1 {
		errs = append(errs, "RARE_PROBABILITY: must be within [0, 1]")
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (c Config) Addr() string { return ":" + c.Port }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getFloat(key string, fallback float64) (float64, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
