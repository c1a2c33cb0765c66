// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Crawler CrawlerConfig `mapstructure:"crawler" yaml:"crawler"`
	Parser  ParserConfig  `mapstructure:"parser" yaml:"parser"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	PoolSize        int           `mapstructure:"pool_size" yaml:"pool_size"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string      `mapstructure:"args" yaml:"args"`
	ActionTimeout   time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	CheckoutRate    float64       `mapstructure:"checkout_rate" yaml:"checkout_rate"`
}

// NetworkConfig tunes the network behavior of the browser tabs.
type NetworkConfig struct {
	NavigationTimeout     time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait          time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
	CaptureResponseBodies bool          `mapstructure:"capture_response_bodies" yaml:"capture_response_bodies"`
}

// CrawlerConfig exposes the tunables of the JS event crawler. The defaults
// are the values the crawler was designed and tested with; they are exposed
// here so operators can see them, not because changing them is recommended.
type CrawlerConfig struct {
	// DispatchEvents is the set of DOM event types worth dispatching.
	DispatchEvents []string `mapstructure:"dispatch_events" yaml:"dispatch_events"`
	// MaxPageReloads bounds the forced reloads of the home URL per session.
	MaxPageReloads int `mapstructure:"max_page_reloads" yaml:"max_page_reloads"`
	// SimilarityThreshold is the fuzzy-equality ratio at or above which two
	// DOM skeletons are considered the same state.
	SimilarityThreshold float64 `mapstructure:"similarity_threshold" yaml:"similarity_threshold"`
	// FailureWindow is the size of the dispatch-log window inspected for an
	// uninterrupted run of failures.
	FailureWindow int `mapstructure:"failure_window" yaml:"failure_window"`
	// MaxInitialStates bounds how many distinct initial DOMs one session
	// will explore before giving up.
	MaxInitialStates int `mapstructure:"max_initial_states" yaml:"max_initial_states"`
	// BonesCacheSize is the capacity of the DOM skeleton memoization cache.
	BonesCacheSize int `mapstructure:"bones_cache_size" yaml:"bones_cache_size"`
	// SettleWait is the pause granted after a state completes cleanly.
	SettleWait time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	// GraceWait is the pause granted, once per URL, when an event appears to
	// have triggered a navigation.
	GraceWait time.Duration `mapstructure:"grace_wait" yaml:"grace_wait"`
}

// ParserConfig configures the captured-response document parser.
type ParserConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "jscrawl")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.pool_size", 4)
	v.SetDefault("browser.ignore_tls_errors", true)
	v.SetDefault("browser.action_timeout", "10s")
	v.SetDefault("browser.checkout_rate", 2.0)

	// -- Network --
	v.SetDefault("network.navigation_timeout", "30s")
	v.SetDefault("network.post_load_wait", "2s")
	v.SetDefault("network.capture_response_bodies", true)

	// -- Crawler --
	v.SetDefault("crawler.dispatch_events", []string{"click", "dblclick"})
	v.SetDefault("crawler.max_page_reloads", 50)
	v.SetDefault("crawler.similarity_threshold", 0.9)
	v.SetDefault("crawler.failure_window", 10)
	v.SetDefault("crawler.max_initial_states", 3)
	v.SetDefault("crawler.bones_cache_size", 2)
	v.SetDefault("crawler.settle_wait", "500ms")
	v.SetDefault("crawler.grace_wait", "1s")

	// -- Parser --
	v.SetDefault("parser.timeout", "10s")
}

// NewDefaultConfig creates a configuration struct populated with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Unmarshalling pure defaults cannot fail unless the struct tags rot.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a validated configuration from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Browser.PoolSize <= 0 {
		return fmt.Errorf("browser.pool_size must be a positive integer")
	}
	if len(c.Crawler.DispatchEvents) == 0 {
		return fmt.Errorf("crawler.dispatch_events must not be empty")
	}
	if c.Crawler.MaxPageReloads <= 0 {
		return fmt.Errorf("crawler.max_page_reloads must be a positive integer")
	}
	if c.Crawler.SimilarityThreshold < 0.0 || c.Crawler.SimilarityThreshold > 1.0 {
		return fmt.Errorf("crawler.similarity_threshold must be between 0.0 and 1.0")
	}
	if c.Crawler.FailureWindow <= 0 {
		return fmt.Errorf("crawler.failure_window must be a positive integer")
	}
	if c.Crawler.MaxInitialStates <= 0 {
		return fmt.Errorf("crawler.max_initial_states must be a positive integer")
	}
	if c.Crawler.BonesCacheSize <= 0 {
		return fmt.Errorf("crawler.bones_cache_size must be a positive integer")
	}
	return nil
}
