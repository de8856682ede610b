package config

import (
	"fmt"
	"github.com/spf13/viper"
)

type HHConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	MaxRequestsPerSecond float32 `mapstructure:"max_requests_per_second"`
}

func (config HHConfig) validate() error {
	if config.Enabled && config.MaxRequestsPerSecond <= 0 {
		return fmt.Errorf("hh max_requests_per_second must be positive")
	}
	return nil
}

func (config HHConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("hh.max_requests_per_second", "HH_MAX_REQUESTS_PER_SECOND")
}
