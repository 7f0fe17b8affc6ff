package config

import (
	"fmt"
	"strings"
)

// ValidationError reports one invalid configuration field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation error: field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// ValidationErrors aggregates every ValidationError found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	messages := make([]string, len(e))
	for i, err := range e {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// Validate checks cfg for internally-inconsistent or out-of-range values.
// It never touches the filesystem or network — pure structural validation.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateDispatcher(&cfg.Dispatcher)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if cfg.Version == "" {
		errs = append(errs, ValidationError{Field: "version", Value: cfg.Version, Message: "must not be empty"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateDispatcher(cfg *DispatcherConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Mode != Authoritative && cfg.Mode != Router {
		errs = append(errs, ValidationError{
			Field: "dispatcher.mode", Value: cfg.Mode,
			Message: fmt.Sprintf("must be one of: %q, %q", Authoritative, Router),
		})
	}
	if cfg.TickInterval <= 0 {
		errs = append(errs, ValidationError{Field: "dispatcher.tick_interval", Value: cfg.TickInterval, Message: "must be greater than 0"})
	}
	if cfg.MaxDrainPerTick <= 0 {
		errs = append(errs, ValidationError{Field: "dispatcher.max_drain_per_tick", Value: cfg.MaxDrainPerTick, Message: "must be greater than 0"})
	}
	if cfg.JoiningTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "dispatcher.joining_timeout", Value: cfg.JoiningTimeout, Message: "must be greater than 0"})
	}
	if cfg.SnapshotRequestRate <= 0 {
		errs = append(errs, ValidationError{Field: "dispatcher.snapshot_request_rate", Value: cfg.SnapshotRequestRate, Message: "must be greater than 0"})
	}
	if cfg.Epsilon < 0 {
		errs = append(errs, ValidationError{Field: "dispatcher.epsilon", Value: cfg.Epsilon, Message: "must not be negative"})
	}
	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors
	switch cfg.Level {
	case "debug", "trace", "info", "warn":
	default:
		errs = append(errs, ValidationError{
			Field: "logging.level", Value: cfg.Level,
			Message: "must be one of: debug, trace, info, warn",
		})
	}
	return errs
}
