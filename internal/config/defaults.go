package config

import (
	"github.com/spf13/viper"
	"time"
)

func setDefaults() {
	viper.SetDefault("db.driver", string(DriverSqlite))

	viper.SetDefault("ai.model", "gemini-1.5-flash")
	viper.SetDefault("ai.max_requests_per_minute", 15)
	viper.SetDefault("ai.max_requests_per_day", 1500)

	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.field_timeout", 5*time.Second)
	viper.SetDefault("browser.navigation_timeout", 15*time.Second)
	viper.SetDefault("browser.apply_timeout", 30*time.Second)

	viper.SetDefault("automation.enabled", true)
	viper.SetDefault("automation.schedule", "@hourly")
	viper.SetDefault("automation.jobs_per_sweep", 50)
	viper.SetDefault("automation.job_expiration_days", 30)

	viper.SetDefault("api.address", ":8000")
	viper.SetDefault("api.metrics_address", ":8080")
	viper.SetDefault("api.session_ttl", 24*time.Hour)

	viper.SetDefault("hh.max_requests_per_second", 5)
}
