package config

import (
	"fmt"
)

// Validate checks if the configuration is valid
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateMetrics()...)
	errors = append(errors, c.validateStorage()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	if c.Session.DurationSeconds <= 0 {
		errors = append(errors, ValidationError{
			Path:    "session.duration_seconds",
			Message: fmt.Sprintf("must be positive, got %v", c.Session.DurationSeconds),
		})
	}

	if c.Session.IntervalSeconds <= 0 {
		errors = append(errors, ValidationError{
			Path:    "session.interval_seconds",
			Message: fmt.Sprintf("must be positive, got %v", c.Session.IntervalSeconds),
		})
	}

	return errors
}

func (c *Config) validateMetrics() []ValidationError {
	if c.Metrics.DiskPath != "" {
		return nil
	}

	return []ValidationError{{
		Path:    "metrics.disk_path",
		Message: "must not be empty",
	}}
}

func (c *Config) validateStorage() []ValidationError {
	if c.Storage.Dir != "" {
		return nil
	}

	return []ValidationError{{
		Path:    "storage.dir",
		Message: "must not be empty",
	}}
}

func (c *Config) validateServer() []ValidationError {
	if c.Server.Port >= 1 && c.Server.Port <= 65535 {
		return nil
	}

	return []ValidationError{{
		Path:    "server.port",
		Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port),
	}}
}

func (c *Config) validateLogging() []ValidationError {
	validLevels := []string{"debug", "info", "warn", "error"}
	if contains(validLevels, c.Logging.Level) {
		return nil
	}

	return []ValidationError{{
		Path:    "logging.level",
		Message: fmt.Sprintf("must be one of %v, got '%s'", validLevels, c.Logging.Level),
	}}
}

// contains checks if a string is in a slice
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
