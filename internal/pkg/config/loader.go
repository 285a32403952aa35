// Package config provides fail-open environment loaders for long-running
// processes: an invalid value falls back to its default with a warning
// instead of stopping the process.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LoadResult is the outcome of loading one environment variable.
type LoadResult[T any] struct {
	Value T

	// Warning explains the fallback; empty when the value was used as given.
	Warning string

	// FallbackApplied is set when a present but invalid value was replaced
	// by the default. An unset variable is not a fallback.
	FallbackApplied bool
}

// LoadEnv reads envKey, parses it and validates it. An unset or empty
// variable yields defaultValue. A parse or validation failure yields
// defaultValue with FallbackApplied set. validate may be nil.
func LoadEnv[T any](envKey string, defaultValue T, parse func(string) (T, error), validate func(T) error) LoadResult[T] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return LoadResult[T]{Value: defaultValue}
	}

	value, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(value)
	}
	if err != nil {
		return LoadResult[T]{
			Value:           defaultValue,
			Warning:         fmt.Sprintf("invalid %s=%q: %v, falling back to default %v", envKey, raw, err, defaultValue),
			FallbackApplied: true,
		}
	}

	return LoadResult[T]{Value: value}
}

// LoadEnvString loads a string value.
func LoadEnvString(envKey, defaultValue string, validate func(string) error) LoadResult[string] {
	return LoadEnv(envKey, defaultValue, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvInt loads a base-10 integer value.
func LoadEnvInt(envKey string, defaultValue int, validate func(int) error) LoadResult[int] {
	return LoadEnv(envKey, defaultValue, strconv.Atoi, validate)
}

// LoadEnvDuration loads a value in time.ParseDuration format ("90s", "5m").
func LoadEnvDuration(envKey string, defaultValue time.Duration, validate func(time.Duration) error) LoadResult[time.Duration] {
	return LoadEnv(envKey, defaultValue, time.ParseDuration, validate)
}

// LoadEnvBool loads a value in strconv.ParseBool format.
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	return LoadEnv(envKey, defaultValue, strconv.ParseBool, nil)
}
