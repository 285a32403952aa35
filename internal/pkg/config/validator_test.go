package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCronSchedule(t *testing.T) {
	valid := []string{"30 5 * * *", "*/15 * * * *", "0 0 1 1 *", "@daily", "@every 30m"}
	for _, s := range valid {
		assert.NoError(t, ValidateCronSchedule(s), s)
	}

	invalid := []string{"", "* * * *", "0 0 0 * * *", "60 * * * *", "not cron"}
	for _, s := range invalid {
		assert.Error(t, ValidateCronSchedule(s), s)
	}
}

func TestParseCronSchedule_Next(t *testing.T) {
	schedule, err := ParseCronSchedule("30 5 * * *")
	require.NoError(t, err)

	from := time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 10, 20, 5, 30, 0, 0, time.UTC), schedule.Next(from))
}

func TestValidateTimezone(t *testing.T) {
	assert.NoError(t, ValidateTimezone("Asia/Tokyo"))
	assert.NoError(t, ValidateTimezone("UTC"))
	assert.Error(t, ValidateTimezone(""))
	assert.Error(t, ValidateTimezone("Mars/Olympus_Mons"))
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(time.Minute, time.Minute, time.Hour))
	assert.NoError(t, ValidateDuration(time.Hour, time.Minute, time.Hour))
	assert.ErrorContains(t, ValidateDuration(time.Second, time.Minute, time.Hour), "below minimum")
	assert.ErrorContains(t, ValidateDuration(2*time.Hour, time.Minute, time.Hour), "exceeds maximum")
	assert.ErrorContains(t, ValidateDuration(time.Minute, time.Hour, time.Minute), "invalid range")
}

func TestValidateIntRange(t *testing.T) {
	assert.NoError(t, ValidateIntRange(1024, 1024, 65535))
	assert.ErrorContains(t, ValidateIntRange(80, 1024, 65535), "below minimum")
	assert.ErrorContains(t, ValidateIntRange(70000, 1024, 65535), "exceeds maximum")
	assert.ErrorContains(t, ValidateIntRange(1, 10, 5), "invalid range")
}

func TestValidatePositiveDuration(t *testing.T) {
	assert.NoError(t, ValidatePositiveDuration(time.Nanosecond))
	assert.Error(t, ValidatePositiveDuration(0))
	assert.Error(t, ValidatePositiveDuration(-time.Second))
}

func TestValidateOutputPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "existing.xml")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "new file in existing dir", path: filepath.Join(dir, "feed.xml")},
		{name: "existing file", path: file},
		{name: "empty", path: "", wantErr: true},
		{name: "missing parent", path: filepath.Join(dir, "missing", "feed.xml"), wantErr: true},
		{name: "parent is a file", path: filepath.Join(file, "feed.xml"), wantErr: true},
		{name: "path is a directory", path: dir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
