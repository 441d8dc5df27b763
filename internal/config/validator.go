package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks s and returns every problem found in one error.
func Validate(s *Settings) error {
	var problems []string

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}

	// Cross-field rules the tags cannot express.
	if s.Store.Type == "postgres" && !strings.Contains(s.Store.DSN, "://") && !strings.Contains(s.Store.DSN, "=") {
		problems = append(problems, fmt.Sprintf("store.dsn must be a postgres URL or key=value string, got: %q", s.Store.DSN))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	name := configKey(fe.StructNamespace())
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be positive, got: %v", name, fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got: %v", name, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got: %q", name, fe.Param(), fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got: %q", name, fe.Value())
	case "required":
		return fmt.Sprintf("%s is required", name)
	default:
		return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
	}
}

// configKey maps "Settings.Store.DSN" to the config key "store.dsn".
func configKey(ns string) string {
	keys := map[string]string{
		"Settings.MinTime":       "min_time",
		"Settings.TimeUnit":      "time_unit",
		"Settings.MaxIterations": "max_iterations",
		"Settings.MetricsAddr":   "metrics_addr",
		"Settings.Store.Type":    "store.type",
		"Settings.Store.DSN":     "store.dsn",
	}
	if k, ok := keys[ns]; ok {
		return k
	}
	return ns
}
