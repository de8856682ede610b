package config

import (
	"fmt"
	"github.com/robfig/cron/v3"
)

type AutomationConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Schedule     string `mapstructure:"schedule"`
	JobsPerSweep int    `mapstructure:"jobs_per_sweep"`
	// JobExpirationDays is how long a job nobody applied to is kept.
	JobExpirationDays int `mapstructure:"job_expiration_days"`
}

func (config AutomationConfig) validate() error {
	if config.JobExpirationDays <= 0 {
		return fmt.Errorf("job_expiration_days must be positive")
	}
	if !config.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return fmt.Errorf("invalid automation schedule %q: %w", config.Schedule, err)
	}
	if config.JobsPerSweep <= 0 {
		return fmt.Errorf("jobs_per_sweep must be positive")
	}
	return nil
}

func (config AutomationConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"automation.enabled":             "AUTOMATION_ENABLED",
		"automation.schedule":            "AUTOMATION_SCHEDULE",
		"automation.job_expiration_days": "JOB_EXPIRATION_DAYS",
	})
}
