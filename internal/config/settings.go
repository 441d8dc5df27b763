package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings is the resolved harness configuration.
type Settings struct {
	MinTime        time.Duration `mapstructure:"min_time" validate:"gt=0"`
	TimeUnit       string        `mapstructure:"time_unit" validate:"oneof=ns us ms s"`
	ReportBaseline bool          `mapstructure:"report_baseline"`
	MaxIterations  int64         `mapstructure:"max_iterations" validate:"gt=0,lte=1000000000"`
	Verbose        bool          `mapstructure:"verbose"`
	LogFile        string        `mapstructure:"log_file"`
	MetricsAddr    string        `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	Store          StoreSettings `mapstructure:"store"`
}

// StoreSettings selects where session history is kept.
type StoreSettings struct {
	Type string `mapstructure:"type" validate:"oneof=sqlite postgres"`
	DSN  string `mapstructure:"dsn" validate:"required"`
	// Save persists every completed session.
	Save bool `mapstructure:"save"`
}

// Current decodes and validates the settings held by viper.
func Current() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
