// Package config loads harness settings from flags, environment and an
// optional config file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BENCHCORE"

// Load initializes the configuration from file and environment variables.
// A missing config file is not an error; an unreadable one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("benchcore")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers the default of every setting.
func SetDefaults() {
	viper.SetDefault("min_time", 500*time.Millisecond)
	viper.SetDefault("time_unit", "ns")
	viper.SetDefault("report_baseline", true)
	viper.SetDefault("max_iterations", int64(1_000_000_000))
	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("metrics_addr", "")
	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.dsn", ".benchcore/history.db")
	viper.SetDefault("store.save", false)
}
