package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		want     string
		fallback bool
	}{
		{name: "unset uses default", env: "", want: "30 5 * * *"},
		{name: "valid value", env: "0 */6 * * *", want: "0 */6 * * *"},
		{name: "descriptor", env: "@hourly", want: "@hourly"},
		{name: "invalid value falls back", env: "every day", want: "30 5 * * *", fallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_CRON", tt.env)

			result := LoadEnvString("TEST_CRON", "30 5 * * *", ValidateCronSchedule)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.fallback, result.FallbackApplied)
			if tt.fallback {
				assert.Contains(t, result.Warning, `invalid TEST_CRON="every day"`)
				assert.Contains(t, result.Warning, "falling back to default 30 5 * * *")
			} else {
				assert.Empty(t, result.Warning)
			}
		})
	}
}

func TestLoadEnvString_NilValidator(t *testing.T) {
	t.Setenv("TEST_OUTPUT", "/srv/feed.xml")

	result := LoadEnvString("TEST_OUTPUT", "feed.xml", nil)

	assert.Equal(t, "/srv/feed.xml", result.Value)
	assert.False(t, result.FallbackApplied)
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 1024, 65535) }

	tests := []struct {
		name     string
		env      string
		want     int
		fallback bool
	}{
		{name: "unset", env: "", want: 9091},
		{name: "valid", env: "8081", want: 8081},
		{name: "not a number", env: "80a", want: 9091, fallback: true},
		{name: "trailing garbage", env: "8081 ", want: 9091, fallback: true},
		{name: "out of range", env: "80", want: 9091, fallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_PORT", tt.env)

			result := LoadEnvInt("TEST_PORT", 9091, inRange)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.fallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	bounded := func(d time.Duration) error { return ValidateDuration(d, time.Minute, time.Hour) }

	tests := []struct {
		name     string
		env      string
		want     time.Duration
		fallback bool
	}{
		{name: "unset", env: "", want: 10 * time.Minute},
		{name: "valid", env: "15m", want: 15 * time.Minute},
		{name: "unparseable", env: "15 minutes", want: 10 * time.Minute, fallback: true},
		{name: "too short", env: "30s", want: 10 * time.Minute, fallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_TIMEOUT", tt.env)

			result := LoadEnvDuration("TEST_TIMEOUT", 10*time.Minute, bounded)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.fallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnvBool(t *testing.T) {
	tests := []struct {
		env      string
		want     bool
		fallback bool
	}{
		{env: "", want: true},
		{env: "false", want: false},
		{env: "0", want: false},
		{env: "TRUE", want: true},
		{env: "yes", want: true, fallback: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.env)

			result := LoadEnvBool("TEST_BOOL", true)

			assert.Equal(t, tt.want, result.Value)
			assert.Equal(t, tt.fallback, result.FallbackApplied)
		})
	}
}

func TestLoadEnv_CustomParser(t *testing.T) {
	t.Setenv("TEST_CUSTOM", "anything")

	result := LoadEnv("TEST_CUSTOM", 7, func(string) (int, error) {
		return 0, errors.New("boom")
	}, nil)

	assert.Equal(t, 7, result.Value)
	assert.True(t, result.FallbackApplied)
	assert.Contains(t, result.Warning, "boom")
}
