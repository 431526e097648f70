package config

import (
	"fmt"
	"os"
	"time"
)

type Sessions struct {
	DBPath        string
	TTL           time.Duration
	SweepInterval time.Duration
}

func lookupDuration(key string, fallback time.Duration) (time.Duration, error) {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("unable to parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func NewSessions() (*Sessions, error) {
	ttl, err := lookupDuration("SESSION_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	interval, err := lookupDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	return &Sessions{
		DBPath:        lookupEnvOr("SESSION_DB_PATH", "sessions.db"),
		TTL:           ttl,
		SweepInterval: interval,
	}, nil
}
