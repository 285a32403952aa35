package scraper

import (
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
)

// Config holds the selector strategies and limits used by the Extractor.
type Config struct {
	// Selectors are tried in order; the first matching at least MinMatches
	// elements provides the candidates.
	Selectors []string `yaml:"selectors"`

	// MinMatches is the match count a selector needs to win.
	// Default: 1
	MinMatches int `yaml:"min_matches"`

	// MaxCandidates caps the candidate pool before filtering.
	// Default: 50
	MaxCandidates int `yaml:"max_candidates"`

	// MaxRecords caps the number of emitted records.
	// Default: 20
	MaxRecords int `yaml:"max_records"`

	// MinTitleLength is the shortest accepted title, in runes.
	// Default: 5
	MinTitleLength int `yaml:"min_title_length"`

	// MaxDescriptionLength is the longest description, in runes, including
	// the truncation marker.
	// Default: 300
	MaxDescriptionLength int `yaml:"max_description_length"`
}

// DefaultSelectors returns the selector strategies from most to least specific.
func DefaultSelectors() []string {
	return []string{
		"article",
		".post",
		`[class*="article"]`,
		`a[href*="/anime/"]`,
	}
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() Config {
	return Config{
		Selectors:            DefaultSelectors(),
		MinMatches:           1,
		MaxCandidates:        50,
		MaxRecords:           20,
		MinTitleLength:       5,
		MaxDescriptionLength: 300,
	}
}

// Validate checks the configuration. Every selector must compile; goquery
// would otherwise silently match nothing.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Selectors) == 0 {
		errs = append(errs, errors.New("at least one selector is required"))
	}
	for i, sel := range c.Selectors {
		if _, err := cascadia.Compile(sel); err != nil {
			errs = append(errs, fmt.Errorf("selector %d (%q): %w", i, sel, err))
		}
	}

	if c.MinMatches < 1 {
		errs = append(errs, fmt.Errorf("min matches must be at least 1, got %d", c.MinMatches))
	}
	if c.MaxRecords < 1 || c.MaxRecords > 20 {
		errs = append(errs, fmt.Errorf("max records must be between 1 and 20, got %d", c.MaxRecords))
	}
	if c.MaxCandidates < c.MaxRecords || c.MaxCandidates > 50 {
		errs = append(errs, fmt.Errorf("max candidates must be between max records and 50, got %d", c.MaxCandidates))
	}
	if c.MinTitleLength < 5 || c.MinTitleLength > 10 {
		errs = append(errs, fmt.Errorf("min title length must be between 5 and 10, got %d", c.MinTitleLength))
	}
	if c.MaxDescriptionLength < 300 || c.MaxDescriptionLength > 400 {
		errs = append(errs, fmt.Errorf("max description length must be between 300 and 400, got %d", c.MaxDescriptionLength))
	}

	return errors.Join(errs...)
}
