package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validSettings() Settings {
	return Settings{
		MinTime:       time.Second,
		TimeUnit:      "ns",
		MaxIterations: 1000,
		Store:         StoreSettings{Type: "sqlite", DSN: "h.db"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(s *Settings)
		wantError bool
		errMsg    string
	}{
		{
			name:   "Valid Configuration",
			mutate: func(s *Settings) { s.MetricsAddr = "localhost:9090" },
		},
		{
			name:      "Invalid Min Time",
			mutate:    func(s *Settings) { s.MinTime = -time.Second },
			wantError: true,
			errMsg:    "min_time must be positive",
		},
		{
			name:      "Invalid Max Iterations",
			mutate:    func(s *Settings) { s.MaxIterations = 0 },
			wantError: true,
			errMsg:    "max_iterations must be positive",
		},
		{
			name:      "Max Iterations Too High",
			mutate:    func(s *Settings) { s.MaxIterations = 2_000_000_000 },
			wantError: true,
			errMsg:    "max_iterations must be at most 1000000000",
		},
		{
			name:      "Invalid Time Unit",
			mutate:    func(s *Settings) { s.TimeUnit = "h" },
			wantError: true,
			errMsg:    "time_unit must be one of [ns us ms s]",
		},
		{
			name:      "Invalid Metrics Address",
			mutate:    func(s *Settings) { s.MetricsAddr = "localhost:99999" },
			wantError: true,
			errMsg:    "metrics_addr must be host:port",
		},
		{
			name:      "Unknown Store",
			mutate:    func(s *Settings) { s.Store.Type = "mysql" },
			wantError: true,
			errMsg:    "store.type must be one of",
		},
		{
			name:      "Missing DSN",
			mutate:    func(s *Settings) { s.Store.DSN = "" },
			wantError: true,
			errMsg:    "store.dsn is required",
		},
		{
			name: "Postgres DSN Shape",
			mutate: func(s *Settings) {
				s.Store.Type = "postgres"
				s.Store.DSN = "history.db"
			},
			wantError: true,
			errMsg:    "store.dsn must be a postgres URL",
		},
		{
			name: "Multiple Errors",
			mutate: func(s *Settings) {
				s.MinTime = 0
				s.TimeUnit = "fortnight"
			},
			wantError: true,
			errMsg:    "configuration validation failed:\n  min_time must be positive, got: 0s\n  time_unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := Validate(&s)
			if tt.wantError {
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
