package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Database struct {
	Username string
	Password string
	Host     string
	Port     uint16
	DBName   string
	SSLMode  string
}

func loadPassword() (string, error) {
	password, ok := os.LookupEnv("POSTGRES_PASSWORD")
	if ok {
		return password, nil
	}

	passwordFile, ok := os.LookupEnv("POSTGRES_PASSWORD_FILE")
	if !ok {
		return "", fmt.Errorf("no POSTGRES_PASSWORD or POSTGRES_PASSWORD_FILE env variable set")
	}

	data, err := os.ReadFile(passwordFile)
	if err != nil {
		return "", fmt.Errorf("unable to read from password file: %w", err)
	}

	return strings.TrimSpace(string(data)), nil
}

func lookupEnvOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func NewDatabase() (*Database, error) {
	username, ok := os.LookupEnv("POSTGRES_USER")
	if !ok {
		return nil, fmt.Errorf("no POSTGRES_USER env variable set")
	}

	password, err := loadPassword()
	if err != nil {
		return nil, fmt.Errorf("unable to load password: %w", err)
	}

	port, err := strconv.ParseUint(lookupEnvOr("POSTGRES_PORT", "5432"), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("unable to parse POSTGRES_PORT: %w", err)
	}

	dbName, ok := os.LookupEnv("POSTGRES_DB")
	if !ok {
		return nil, fmt.Errorf("no POSTGRES_DB env variable set")
	}

	config := &Database{
		Username: username,
		Password: password,
		Host:     lookupEnvOr("POSTGRES_HOST", "localhost"),
		Port:     uint16(port),
		DBName:   dbName,
		SSLMode:  lookupEnvOr("POSTGRES_SSLMODE", "disable"),
	}

	return config, nil
}

func (c Database) URL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}

// DbURL prefers DATABASE_URL and falls back to the POSTGRES_* variables.
func DbURL() (string, error) {
	dbURL, ok := os.LookupEnv("DATABASE_URL")
	if ok {
		return dbURL, nil
	}

	cfg, err := NewDatabase()
	if err == nil {
		return cfg.URL(), nil
	}

	return "", fmt.Errorf("no DATABASE_URL set; %w", err)
}

func NewPgxpoolConfig() (*pgxpool.Config, error) {
	dbURL, err := DbURL()
	if err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	if maxConns, ok := os.LookupEnv("POSTGRES_MAX_CONNS"); ok {
		n, err := strconv.ParseInt(maxConns, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("unable to parse POSTGRES_MAX_CONNS: %w", err)
		}
		config.MaxConns = int32(n)
	}

	return config, nil
}
