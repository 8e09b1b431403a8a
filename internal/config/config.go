// Package config provides runtime configuration for the datajoin CLI.
// It loads settings from environment variables with sensible defaults and
// validates them before the pipeline starts.
//
// Environment Variables:
//
//   - JOB_FILE: Path to the YAML job spec (default: ./job.yaml)
//   - LOG_LEVEL: Logging level (default: info)
//   - LOG_FILE: Log file path; empty logs to stderr
//   - WORKER_COUNT: Parallel engine worker count (default: 0 = NumCPU)
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Job semantics (sources,
// key, mode, rules, outputs) live in the YAML job spec, not here.
type Config struct {
	JobFile     string // Path to the YAML job spec
	LogLevel    string // Logging level (debug, info, warn, error)
	LogFile     string // Log file path; empty means stderr
	WorkerCount int    // Parallel engine workers; 0 means NumCPU
}

// Load creates a new Config instance with values loaded from environment
// variables. Call Validate() on the result before use.
func Load() *Config {
	return &Config{
		JobFile:     getEnv("JOB_FILE", "./job.yaml"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", ""),
		WorkerCount: getIntEnv("WORKER_COUNT", 0),
	}
}

// getEnv retrieves an environment variable value or returns a default value if not set.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves an integer environment variable value or returns a
// default value if not set or invalid.
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.JobFile == "" {
		return fmt.Errorf("JOB_FILE must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error",
		"DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("WORKER_COUNT must be zero or a positive number")
	}
	return nil
}
