// internal/config/config_test.go
package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alkemir/jscrawl/internal/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"click", "dblclick"}, cfg.Crawler.DispatchEvents)
	assert.Equal(t, 50, cfg.Crawler.MaxPageReloads)
	assert.Equal(t, 0.9, cfg.Crawler.SimilarityThreshold)
	assert.Equal(t, 10, cfg.Crawler.FailureWindow)
	assert.Equal(t, 3, cfg.Crawler.MaxInitialStates)
	assert.Equal(t, 2, cfg.Crawler.BonesCacheSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawler.SettleWait)
	assert.Equal(t, time.Second, cfg.Crawler.GraceWait)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 4, cfg.Browser.PoolSize)
	assert.Equal(t, 10*time.Second, cfg.Browser.ActionTimeout)

	assert.Equal(t, 30*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Network.PostLoadWait)
	assert.True(t, cfg.Network.CaptureResponseBodies)

	assert.Equal(t, 10*time.Second, cfg.Parser.Timeout)

	assert.NoError(t, cfg.Validate(), "defaults must validate")
}

func TestNewConfigFromViper_Overrides(t *testing.T) {
	v := viper.New()
	config.SetDefaults(v)
	v.Set("crawler.max_page_reloads", 5)
	v.Set("crawler.settle_wait", "250ms")
	v.Set("browser.pool_size", 2)

	cfg, err := config.NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Crawler.MaxPageReloads)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawler.SettleWait)
	assert.Equal(t, 2, cfg.Browser.PoolSize)
	// Untouched values keep their defaults.
	assert.Equal(t, 0.9, cfg.Crawler.SimilarityThreshold)
}

func TestNewConfigFromViper_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value interface{}
	}{
		{"zero pool size", "browser.pool_size", 0},
		{"empty dispatch events", "crawler.dispatch_events", []string{}},
		{"negative reload bound", "crawler.max_page_reloads", -1},
		{"threshold above one", "crawler.similarity_threshold", 1.5},
		{"zero failure window", "crawler.failure_window", 0},
		{"zero initial states", "crawler.max_initial_states", 0},
		{"zero bones cache", "crawler.bones_cache_size", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			v.Set(tc.key, tc.value)

			cfg, err := config.NewConfigFromViper(v)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
