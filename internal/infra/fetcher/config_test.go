package fetcher_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oricon-feed/internal/infra/fetcher"
)

func TestDefaultConfig(t *testing.T) {
	cfg := fetcher.DefaultConfig()

	assert.Equal(t, 30*time.Second, cfg.DirectTimeout)
	assert.Equal(t, 45*time.Second, cfg.RelayTimeout)
	assert.Equal(t, 2*time.Second, cfg.RelayDelay)
	assert.Equal(t, 1000, cfg.MinBodyBytes)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxBodySize)
	assert.Equal(t, 5, cfg.MaxRedirects)
	assert.True(t, cfg.DenyPrivateIPs, "private IPs must be denied by default")
	assert.NotEmpty(t, cfg.UserAgent)

	require.Len(t, cfg.Relays, 3)
	assert.Equal(t, "allorigins", cfg.Relays[0].Name)
	assert.Equal(t, "corsproxy", cfg.Relays[1].Name)
	assert.Equal(t, "codetabs", cfg.Relays[2].Name)

	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*fetcher.Config)
		wantErr string
	}{
		{
			name:    "zero direct timeout",
			mutate:  func(c *fetcher.Config) { c.DirectTimeout = 0 },
			wantErr: "direct timeout must be positive",
		},
		{
			name:    "negative relay timeout",
			mutate:  func(c *fetcher.Config) { c.RelayTimeout = -time.Second },
			wantErr: "relay timeout must be positive",
		},
		{
			name:    "relay delay too long",
			mutate:  func(c *fetcher.Config) { c.RelayDelay = 2 * time.Minute },
			wantErr: "relay delay must be between 0 and 1m",
		},
		{
			name:    "max body size too small",
			mutate:  func(c *fetcher.Config) { c.MaxBodySize = 512 },
			wantErr: "max body size must be between",
		},
		{
			name:    "min body bytes negative",
			mutate:  func(c *fetcher.Config) { c.MinBodyBytes = -1 },
			wantErr: "min body bytes must be between",
		},
		{
			name: "min body bytes not below max body size",
			mutate: func(c *fetcher.Config) {
				c.MaxBodySize = 2048
				c.MinBodyBytes = 2048
			},
			wantErr: "min body bytes must be between",
		},
		{
			name:    "too many redirects",
			mutate:  func(c *fetcher.Config) { c.MaxRedirects = 11 },
			wantErr: "max redirects must be between 0 and 10",
		},
		{
			name:    "relay without name",
			mutate:  func(c *fetcher.Config) { c.Relays[0].Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "relay named like the direct strategy",
			mutate:  func(c *fetcher.Config) { c.Relays[0].Name = fetcher.DirectStrategy },
			wantErr: "duplicate name",
		},
		{
			name:    "duplicate relay names",
			mutate:  func(c *fetcher.Config) { c.Relays[1].Name = c.Relays[0].Name },
			wantErr: "duplicate name",
		},
		{
			name:    "relay template not http",
			mutate:  func(c *fetcher.Config) { c.Relays[2].Template = "ftp://relay.example/?u=" },
			wantErr: "template must be an absolute http(s) URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fetcher.DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidate_ZeroRelayDelayAndNoRelays(t *testing.T) {
	cfg := fetcher.DefaultConfig()
	cfg.RelayDelay = 0
	cfg.Relays = nil

	assert.NoError(t, cfg.Validate())
}

func TestRelayBuildURL(t *testing.T) {
	const target = "https://us.oricon-group.com/category/anime/"

	tests := []struct {
		name  string
		relay fetcher.Relay
		want  string
	}{
		{
			name:  "placeholder with encoding",
			relay: fetcher.Relay{Name: "a", Template: "https://relay.example/raw?url={url}", Encode: true},
			want:  "https://relay.example/raw?url=https%3A%2F%2Fus.oricon-group.com%2Fcategory%2Fanime%2F",
		},
		{
			name:  "placeholder without encoding",
			relay: fetcher.Relay{Name: "b", Template: "https://relay.example/{url}"},
			want:  "https://relay.example/https://us.oricon-group.com/category/anime/",
		},
		{
			name:  "appended when no placeholder",
			relay: fetcher.Relay{Name: "c", Template: "https://relay.example/proxy?quest="},
			want:  "https://relay.example/proxy?quest=https://us.oricon-group.com/category/anime/",
		},
		{
			name:  "appended and encoded",
			relay: fetcher.Relay{Name: "d", Template: "https://relay.example/?u=", Encode: true},
			want:  "https://relay.example/?u=https%3A%2F%2Fus.oricon-group.com%2Fcategory%2Fanime%2F",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.relay.BuildURL(target))
		})
	}
}
