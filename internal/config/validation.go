package config

import (
	"fmt"
	"time"

	derrors "github.com/TeXLuaCATS/manager/internal/errors"
	"github.com/TeXLuaCATS/manager/internal/retry"
)

// ValidateConfig validates the configuration after defaults were applied.
func ValidateConfig(cfg *Config) error {
	validator := newConfigurationValidator(cfg)
	return validator.validate()
}

type configurationValidator struct {
	config *Config
}

func newConfigurationValidator(config *Config) *configurationValidator {
	return &configurationValidator{config: config}
}

func (cv *configurationValidator) validate() error {
	if err := cv.config.Git.Auth.validate(); err != nil {
		return err
	}
	if err := cv.validateDurations(); err != nil {
		return err
	}
	return cv.validateSchedule()
}

func (cv *configurationValidator) validateDurations() error {
	durations := []struct{ field, value string }{
		{"tools.example_timeout", cv.config.Tools.ExampleTimeout},
		{"fetch.timeout", cv.config.Fetch.Timeout},
		{"fetch.retry_delay", cv.config.Fetch.RetryDelay},
		{"fetch.max_delay", cv.config.Fetch.MaxDelay},
	}
	for _, d := range durations {
		if _, err := time.ParseDuration(d.value); err != nil {
			return derrors.ValidationFailed(d.field, err.Error())
		}
	}
	if r := cv.config.Fetch.Retries; r != nil && *r < 0 {
		return derrors.ValidationFailed("fetch.retries", "retries cannot be negative")
	}
	switch retry.BackoffMode(cv.config.Fetch.Backoff) {
	case retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential:
	default:
		return derrors.ValidationFailed("fetch.backoff", fmt.Sprintf("unsupported backoff %q", cv.config.Fetch.Backoff))
	}
	return nil
}

func (cv *configurationValidator) validateSchedule() error {
	d, err := time.ParseDuration(cv.config.Schedule.Every)
	if err != nil {
		return derrors.ValidationFailed("schedule.every", err.Error())
	}
	if d < time.Minute {
		return derrors.ValidationFailed("schedule.every", "interval must be at least one minute")
	}
	return nil
}
