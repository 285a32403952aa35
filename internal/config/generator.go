// Package config assembles the configuration of a feed generation run from
// defaults, an optional YAML file and environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"oricon-feed/internal/domain/entity"
	"oricon-feed/internal/infra/feed"
	"oricon-feed/internal/infra/fetcher"
	"oricon-feed/internal/infra/scraper"
	envconfig "oricon-feed/pkg/config"
)

const (
	// DefaultSourceURL is the listing page the feed is built from.
	DefaultSourceURL = "https://us.oricon-group.com/category/anime/"

	// DefaultBaseURL resolves relative links and images.
	DefaultBaseURL = "https://us.oricon-group.com"
)

// SourceConfig identifies the page being scraped.
type SourceConfig struct {
	URL     string `yaml:"url"`
	BaseURL string `yaml:"base_url"`
}

// GeneratorConfig is the complete configuration of a generation run.
//
// Example file:
//
//	fetcher:
//	  relay_delay: 1s
//	  min_body_bytes: 2000
//	extractor:
//	  max_description_length: 400
//	output: /srv/www/oricon_anime.xml
type GeneratorConfig struct {
	Source    SourceConfig       `yaml:"source"`
	Fetcher   fetcher.Config     `yaml:"fetcher"`
	Extractor scraper.Config     `yaml:"extractor"`
	Feed      feed.ChannelConfig `yaml:"feed"`

	// Output is the feed path used by the worker. The generate command
	// takes it from its -o flag instead.
	Output string `yaml:"output"`
}

// DefaultGeneratorConfig returns the built-in configuration.
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Source: SourceConfig{
			URL:     DefaultSourceURL,
			BaseURL: DefaultBaseURL,
		},
		Fetcher:   fetcher.DefaultConfig(),
		Extractor: scraper.DefaultConfig(),
		Feed:      feed.DefaultChannelConfig(DefaultSourceURL),
	}
}

// LoadGeneratorConfig returns the defaults overlaid with the YAML file at
// path (skipped when path is empty) and then with environment overrides.
// The result is validated.
//
// Environment variables:
//   - ORICON_OUTPUT: output path
//   - FETCH_MIN_BODY_BYTES, FETCH_RELAY_DELAY, FETCH_DIRECT_TIMEOUT,
//     FETCH_RELAY_TIMEOUT, FETCH_DENY_PRIVATE_IPS: fetcher settings
//   - EXTRACT_MIN_MATCHES, EXTRACT_MAX_DESCRIPTION: extractor settings
func LoadGeneratorConfig(path string) (*GeneratorConfig, error) {
	cfg := DefaultGeneratorConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// decode overlays a YAML document. Unknown keys are rejected so a typo does
// not silently leave a default in place.
func (c *GeneratorConfig) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *GeneratorConfig) applyEnv() error {
	return errors.Join(
		envconfig.OverrideString("ORICON_OUTPUT", &c.Output),
		envconfig.OverrideInt("FETCH_MIN_BODY_BYTES", &c.Fetcher.MinBodyBytes),
		envconfig.OverrideDuration("FETCH_RELAY_DELAY", &c.Fetcher.RelayDelay),
		envconfig.OverrideDuration("FETCH_DIRECT_TIMEOUT", &c.Fetcher.DirectTimeout),
		envconfig.OverrideDuration("FETCH_RELAY_TIMEOUT", &c.Fetcher.RelayTimeout),
		envconfig.OverrideBool("FETCH_DENY_PRIVATE_IPS", &c.Fetcher.DenyPrivateIPs),
		envconfig.OverrideInt("EXTRACT_MIN_MATCHES", &c.Extractor.MinMatches),
		envconfig.OverrideInt("EXTRACT_MAX_DESCRIPTION", &c.Extractor.MaxDescriptionLength),
	)
}

// applyDerivedDefaults points the channel at the source page unless the
// file said otherwise.
func (c *GeneratorConfig) applyDerivedDefaults() {
	if c.Feed.Link == "" || c.Feed.Link == DefaultSourceURL {
		c.Feed.Link = c.Source.URL
	}
	if c.Feed.SelfURL == "" || c.Feed.SelfURL == DefaultSourceURL {
		c.Feed.SelfURL = c.Feed.Link
	}
}

// Validate checks every section and reports all problems at once.
func (c *GeneratorConfig) Validate() error {
	var errs []error

	if err := entity.ValidateAbsoluteURL("source.url", c.Source.URL); err != nil {
		errs = append(errs, err)
	}
	if err := entity.ValidateAbsoluteURL("source.base_url", c.Source.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := c.Fetcher.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fetcher: %w", err))
	}
	if err := c.Extractor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("extractor: %w", err))
	}
	if err := c.Feed.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("feed: %w", err))
	}

	return errors.Join(errs...)
}
