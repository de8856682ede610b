package config

import (
	"errors"
	"fmt"
	"time"
)

type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	FieldTimeout      time.Duration `mapstructure:"field_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	ApplyTimeout      time.Duration `mapstructure:"apply_timeout"`
}

func (config BrowserConfig) validate() error {
	var errs []error

	if config.FieldTimeout <= 0 {
		errs = append(errs, fmt.Errorf("field_timeout must be positive"))
	}
	if config.NavigationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("navigation_timeout must be positive"))
	}
	if config.ApplyTimeout < config.FieldTimeout {
		errs = append(errs, fmt.Errorf("apply_timeout must not be shorter than field_timeout"))
	}

	return errors.Join(errs...)
}

func (config BrowserConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"browser.headless":      "BROWSER_HEADLESS",
		"browser.apply_timeout": "APPLY_TIMEOUT",
	})
}
