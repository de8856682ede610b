package config

import (
	"fmt"
	"time"
)

type APIConfig struct {
	Address        string        `mapstructure:"address"`
	MetricsAddress string        `mapstructure:"metrics_address"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
}

func (config APIConfig) validate() error {
	if config.Address == "" {
		return fmt.Errorf("missing variable: api address")
	}
	if config.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}
	return nil
}

func (config APIConfig) bindEnvironmentVariables() error {
	return bindAll(map[string]string{
		"api.address":         "API_ADDRESS",
		"api.metrics_address": "METRICS_ADDRESS",
	})
}
