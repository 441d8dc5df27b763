package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAge(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"7d", 7 * 24 * time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"60m", time.Hour, false},
		{"30s", 30 * time.Second, false},
		{"0d", 0, false},
		{"10", 0, true},
		{"5w", 0, true},
		{"-1d", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAge(tt.in)
			if tt.wantErr {
				assert.ErrorContains(t, err, "invalid age")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	got, err := ParseSince("2d", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-48*time.Hour), got)

	got, err = ParseSince(" 2024-01-31 ", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseSince("", now)
	assert.Error(t, err)
	_, err = ParseSince("yesterday", now)
	assert.ErrorContains(t, err, "invalid time")
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero", time.Time{}, "N/A"},
		{"seconds", now.Add(-30 * time.Second), "30s ago"},
		{"minutes", now.Add(-15 * time.Minute), "15m ago"},
		{"hours", now.Add(-5 * time.Hour), "5h ago"},
		{"days", now.Add(-3 * 24 * time.Hour), "3d ago"},
		{"weeks", now.Add(-2 * 7 * 24 * time.Hour), "2w ago"},
		{"months", now.Add(-4 * 30 * 24 * time.Hour), "4mo ago"},
		{"years", now.Add(-2 * 365 * 24 * time.Hour), "2y ago"},
		{"future", now.Add(time.Hour), "0s ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAge(tt.t, now))
		})
	}
}
