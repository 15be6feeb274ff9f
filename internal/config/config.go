package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	DatabaseURL string
	RedisURL    string // empty: sessions and ledger stay in memory
	Timezone    string
	Location    *time.Location

	MessageLimit   int
	ListChunkLimit int
	SendTimeout    time.Duration
	SessionTTL     time.Duration
	Workers        int
	HealthAddr     string
	StrictDaily    bool
}

// Load reads the configuration from the environment, after loading a .env
// file from the working directory if there is one.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k string) string { return strings.TrimSpace(getenv(k)) }

	cfg := Config{
		BotToken:    get("BOT_TOKEN"),
		DatabaseURL: get("DATABASE_URL"),
		RedisURL:    get("REDIS_URL"),
		Timezone:    get("TZ"),
		HealthAddr:  get("HEALTH_ADDR"),
	}
	if cfg.BotToken == "" {
		return Config{}, errors.New("BOT_TOKEN is required")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("TZ: %w", err)
	}
	cfg.Location = loc

	var errs []error
	cfg.MessageLimit = intVar(get, "MESSAGE_LIMIT", 4096, &errs)
	cfg.ListChunkLimit = intVar(get, "LIST_CHUNK_LIMIT", 3000, &errs)
	cfg.Workers = intVar(get, "WORKERS", 4, &errs)
	cfg.SendTimeout = durationVar(get, "SEND_TIMEOUT", 10*time.Second, &errs)
	cfg.SessionTTL = durationVar(get, "SESSION_TTL", 24*time.Hour, &errs)
	if v := get("STRICT_DAILY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STRICT_DAILY: %w", err))
		}
		cfg.StrictDaily = b
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func intVar(get func(string) string, key string, def int, errs *[]error) int {
	v := get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: want a positive integer, got %q", key, v))
		return def
	}
	return n
}

func durationVar(get func(string) string, key string, def time.Duration, errs *[]error) time.Duration {
	v := get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s: want a positive duration, got %q", key, v))
		return def
	}
	return d
}
