package config

import "github.com/spf13/viper"

// TelegramConfig enables the telegram notification channel when Token is set.
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

func (config TelegramConfig) validate() error {
	return nil
}

func (config TelegramConfig) bindEnvironmentVariables() error {
	return viper.BindEnv("telegram.token", "TG_TOKEN")
}
