// Package config resolves Timeship's environment-driven configuration:
// a handful of TIMESHIP_* variables, with defaults, optionally
// preloaded from a ".env" file in the working directory. There is no
// runtime-editable state and no config store; every process picks up
// its configuration once, at startup.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/smilyorg/timeship/log"
)

// Config holds every value Timeship reads from its environment.
type Config struct {
	// Root is the absolute directory served as the "local" storage.
	Root string

	// Address is the listen address for the HTTP server.
	Address string

	// APIPrefix is the path prefix under which API routes are mounted.
	APIPrefix string

	// CORSAllowedOrigins is the set of origins allowed to make
	// cross-origin requests against the API.
	CORSAllowedOrigins []string

	// LogLevel controls the minimum severity written to the log output.
	LogLevel log.Level

	// LogFormat selects how log lines are rendered: "console" (the
	// default, logfmt-style and colored on a terminal) or "json" (one
	// JSON object per line, for log collectors that parse structured
	// output).
	LogFormat string
}

const (
	envRoot      = "TIMESHIP_ROOT"
	envAddress   = "TIMESHIP_ADDRESS"
	envAPIPrefix = "TIMESHIP_API_PREFIX"
	envCORS      = "TIMESHIP_CORS_ALLOWED_ORIGINS"
	envLogLevel  = "TIMESHIP_LOG_LEVEL"
	envLogFormat = "TIMESHIP_LOG_FORMAT"
)

// Load reads Timeship's configuration from the environment, first loading
// a ".env" file in the working directory if one is present (a missing
// file is not an error, matching godotenv.Load's own behavior in
// original_source/api/main.go).
func Load() (Config, error) {
	godotenv.Load()

	root := os.Getenv(envRoot)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolving working directory: %w", err)
		}
		root = wd
	}

	address := os.Getenv(envAddress)
	if address == "" {
		address = ":8080"
	}

	prefix := os.Getenv(envAPIPrefix)
	if prefix == "" {
		prefix = "/api"
	}

	origins := []string{"http://localhost:8080"}
	if raw := os.Getenv(envCORS); raw != "" {
		origins = splitAndTrim(raw)
	}

	level, err := parseLogLevel(os.Getenv(envLogLevel))
	if err != nil {
		return Config{}, err
	}

	format, err := parseLogFormat(os.Getenv(envLogFormat))
	if err != nil {
		return Config{}, err
	}

	return Config{
		Root:               root,
		Address:            address,
		APIPrefix:          prefix,
		CORSAllowedOrigins: origins,
		LogLevel:           level,
		LogFormat:          format,
	}, nil
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(raw string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return log.Linfo, nil
	case "silent":
		return log.Lsilent, nil
	case "error":
		return log.Lerror, nil
	case "warn", "warning":
		return log.Lwarn, nil
	case "info":
		return log.Linfo, nil
	case "debug":
		return log.Ldebug, nil
	default:
		return 0, fmt.Errorf("%s: unrecognized log level %q", envLogLevel, raw)
	}
}

func parseLogFormat(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "console", nil
	case "console", "json":
		return strings.ToLower(strings.TrimSpace(raw)), nil
	default:
		return "", fmt.Errorf("%s: unrecognized log format %q", envLogFormat, raw)
	}
}
