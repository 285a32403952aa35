package fetcher

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// urlPlaceholder marks where the target URL goes in a relay template.
const urlPlaceholder = "{url}"

// Relay describes a third-party forwarding endpoint used when the source
// page cannot be reached directly.
//
// Template is the relay URL. The target is substituted for "{url}" or, when
// the template has no placeholder, appended to it. Encode controls whether
// the target is query-escaped first (relays reading a query parameter) or
// inserted as-is (relays that take the target as a path suffix).
type Relay struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
	Encode   bool   `yaml:"encode"`
}

// BuildURL returns the relay request URL for target.
func (r Relay) BuildURL(target string) string {
	value := target
	if r.Encode {
		value = url.QueryEscape(target)
	}
	if strings.Contains(r.Template, urlPlaceholder) {
		return strings.ReplaceAll(r.Template, urlPlaceholder, value)
	}
	return r.Template + value
}

// Config holds the configuration for page fetching.
//
// Acceptance: a response is used only when its status is 2xx and its body
// is longer than MinBodyBytes. Anti-bot interstitials and error shells are
// usually a few hundred bytes, so the size floor rejects them.
type Config struct {
	// UserAgent is sent with every request, direct or relayed.
	UserAgent string `yaml:"user_agent"`

	// DirectTimeout bounds the direct request to the source page.
	// Default: 30s
	DirectTimeout time.Duration `yaml:"direct_timeout"`

	// RelayTimeout bounds each relay request. Relays add a hop, so this is
	// longer than DirectTimeout.
	// Default: 45s
	RelayTimeout time.Duration `yaml:"relay_timeout"`

	// RelayDelay is the minimum spacing between the starts of consecutive
	// relay attempts.
	// Default: 2s
	RelayDelay time.Duration `yaml:"relay_delay"`

	// MinBodyBytes is the body length a response must exceed to be accepted.
	// Default: 1000
	MinBodyBytes int `yaml:"min_body_bytes"`

	// MaxBodySize caps how much of a response is read.
	// Default: 10485760 (10MB)
	MaxBodySize int64 `yaml:"max_body_size"`

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Default: 5
	MaxRedirects int `yaml:"max_redirects"`

	// DenyPrivateIPs rejects URLs resolving to private/loopback/link-local
	// addresses (SSRF prevention). Only tests against local servers turn it off.
	// Default: true
	DenyPrivateIPs bool `yaml:"deny_private_ips"`

	// Relays are tried in order after the direct request fails.
	Relays []Relay `yaml:"relays"`
}

// DefaultRelays returns the public relay endpoints tried after a failed
// direct request, in order.
func DefaultRelays() []Relay {
	return []Relay{
		{Name: "allorigins", Template: "https://api.allorigins.win/raw?url={url}", Encode: true},
		{Name: "corsproxy", Template: "https://corsproxy.io/?url={url}", Encode: true},
		{Name: "codetabs", Template: "https://api.codetabs.com/v1/proxy?quest=", Encode: false},
	}
}

// DefaultConfig returns the default configuration for page fetching.
func DefaultConfig() Config {
	return Config{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
		DirectTimeout:  30 * time.Second,
		RelayTimeout:   45 * time.Second,
		RelayDelay:     2 * time.Second,
		MinBodyBytes:   1000,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		Relays:         DefaultRelays(),
	}
}

// Validate checks if the configuration values are valid and safe.
//
// Validation rules:
//   - DirectTimeout, RelayTimeout: > 0
//   - RelayDelay: 0-1m
//   - MinBodyBytes: >= 0 and below MaxBodySize
//   - MaxBodySize: 1KB-100MB
//   - MaxRedirects: 0-10
//   - Relays: named, unique, with an absolute http(s) template
func (c *Config) Validate() error {
	if c.DirectTimeout <= 0 {
		return fmt.Errorf("direct timeout must be positive, got %v", c.DirectTimeout)
	}

	if c.RelayTimeout <= 0 {
		return fmt.Errorf("relay timeout must be positive, got %v", c.RelayTimeout)
	}

	if c.RelayDelay < 0 || c.RelayDelay > time.Minute {
		return fmt.Errorf("relay delay must be between 0 and 1m, got %v", c.RelayDelay)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MinBodyBytes < 0 || int64(c.MinBodyBytes) >= c.MaxBodySize {
		return fmt.Errorf("min body bytes must be between 0 and max body size, got %d", c.MinBodyBytes)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	seen := make(map[string]bool, len(c.Relays))
	for i, r := range c.Relays {
		if r.Name == "" {
			return fmt.Errorf("relay %d: name is required", i)
		}
		if r.Name == DirectStrategy || seen[r.Name] {
			return fmt.Errorf("relay %d: duplicate name %q", i, r.Name)
		}
		seen[r.Name] = true

		u, err := url.Parse(r.BuildURL("https://example.com/"))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("relay %q: template must be an absolute http(s) URL, got %q", r.Name, r.Template)
		}
	}

	return nil
}
