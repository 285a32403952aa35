// Package config applies environment variable overrides on top of values
// that were already loaded from defaults or a configuration file.
//
// Unlike the fail-open loaders used by long-running processes, an override
// that is set but cannot be parsed is an error: a one-shot command should
// refuse to run with a configuration the operator did not ask for.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvError reports an environment variable whose value could not be parsed.
type EnvError struct {
	Key   string
	Value string
	Err   error
}

// Error implements the error interface.
func (e *EnvError) Error() string {
	return fmt.Sprintf("invalid %s=%q: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the parse error.
func (e *EnvError) Unwrap() error {
	return e.Err
}

// override sets *dst from key when the variable is set and non-blank.
func override[T any](key string, dst *T, parse func(string) (T, error)) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := parse(raw)
	if err != nil {
		return &EnvError{Key: key, Value: raw, Err: err}
	}
	*dst = v
	return nil
}

// OverrideString sets *dst to the value of key when it is set.
//
//	_ = OverrideString("ORICON_OUTPUT", &cfg.Output)
func OverrideString(key string, dst *string) error {
	return override(key, dst, func(s string) (string, error) { return s, nil })
}

// OverrideInt sets *dst to the base-10 integer value of key when it is set.
func OverrideInt(key string, dst *int) error {
	return override(key, dst, strconv.Atoi)
}

// OverrideBool sets *dst to the strconv.ParseBool value of key when it is set.
func OverrideBool(key string, dst *bool) error {
	return override(key, dst, strconv.ParseBool)
}

// OverrideDuration sets *dst to the time.ParseDuration value of key when it
// is set, e.g. FETCH_RELAY_DELAY=500ms.
func OverrideDuration(key string, dst *time.Duration) error {
	return override(key, dst, time.ParseDuration)
}
