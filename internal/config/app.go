package config

import (
	"os"
	"strings"
)

func Development() bool {
	development, ok := os.LookupEnv("DEVELOPMENT")
	if !ok {
		return false
	}
	return development != "0"
}

// Port returns the listen address, ":8080" unless APP_PORT is set.
func Port() string {
	port, ok := os.LookupEnv("APP_PORT")
	if !ok || port == "" {
		return ":8080"
	}
	if !strings.Contains(port, ":") {
		port = ":" + port
	}
	return port
}

// LogFile is where engine traces are written, if anywhere.
func LogFile() (string, bool) {
	path, ok := os.LookupEnv("LOG_FILE")
	return path, ok && path != ""
}

// CorsOrigins lists the origins from CORS_ALLOWED_ORIGINS. An empty list
// allows any origin.
func CorsOrigins() []string {
	origins, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS")
	if !ok || origins == "" {
		return nil
	}
	var list []string
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			list = append(list, origin)
		}
	}
	return list
}
