// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Tenants   []TenantConfig  `mapstructure:"tenants"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// TelegramConfig configures the outbound Bot API client and optional
// webhook self-registration at startup.
type TelegramConfig struct {
	APIBase          string `mapstructure:"api_base"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	RegisterWebhooks bool   `mapstructure:"register_webhooks"`
	PublicBaseURL    string `mapstructure:"public_base_url"`
}

// BrowserConfig configures the shared headless browser engine.
type BrowserConfig struct {
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
	SettleMs          int    `mapstructure:"settle_ms"`
	UserAgent         string `mapstructure:"user_agent"`
}

// ResolverConfig governs the link resolution pipeline.
type ResolverConfig struct {
	FetchTimeoutSeconds int `mapstructure:"fetch_timeout_seconds"`
	CacheTTLMinutes     int `mapstructure:"cache_ttl_minutes"`
}

// SchedulerConfig controls the broadcast scheduler poll loop.
type SchedulerConfig struct {
	PollSeconds int `mapstructure:"poll_seconds"`
}

// QueueConfig sizes the inbound event queue and its worker pool.
type QueueConfig struct {
	Depth   int `mapstructure:"depth"`
	Workers int `mapstructure:"workers"`
}

// TenantConfig is one bot identity as supplied by the operator. Allow-list,
// trigger times, and broadcast recipients are comma-delimited strings.
type TenantConfig struct {
	ID           string         `mapstructure:"id"`
	Token        string         `mapstructure:"token"`
	APIURL       string         `mapstructure:"api_url"`
	APKTemplate  string         `mapstructure:"apk_template"`
	AllowedChats string         `mapstructure:"allowed_chats"`
	Schedule     ScheduleConfig `mapstructure:"schedule"`
}

// ScheduleConfig describes a tenant's broadcast schedule. Times are UTC
// "HH:MM" values; Message may embed "\n" markers that become real newlines
// at send time.
type ScheduleConfig struct {
	Times      string `mapstructure:"times"`
	Message    string `mapstructure:"message"`
	Recipients string `mapstructure:"recipients"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LINKRELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.timeout_seconds", 10)
	v.SetDefault("telegram.register_webhooks", false)
	v.SetDefault("browser.nav_timeout_seconds", 40)
	v.SetDefault("browser.settle_ms", 2000)
	v.SetDefault("resolver.fetch_timeout_seconds", 10)
	v.SetDefault("resolver.cache_ttl_minutes", 10)
	v.SetDefault("scheduler.poll_seconds", 60)
	v.SetDefault("queue.depth", 64)
	v.SetDefault("queue.workers", 4)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Resolver.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("resolver.fetch_timeout_seconds must be > 0")
	}
	if c.Resolver.CacheTTLMinutes <= 0 {
		return fmt.Errorf("resolver.cache_ttl_minutes must be > 0")
	}
	if c.Browser.NavTimeoutSeconds <= 0 {
		return fmt.Errorf("browser.nav_timeout_seconds must be > 0")
	}
	if c.Scheduler.PollSeconds <= 0 {
		return fmt.Errorf("scheduler.poll_seconds must be > 0")
	}
	if c.Queue.Depth <= 0 || c.Queue.Workers <= 0 {
		return fmt.Errorf("queue.depth and queue.workers must be > 0")
	}
	if c.Telegram.RegisterWebhooks && c.Telegram.PublicBaseURL == "" {
		return fmt.Errorf("telegram.public_base_url must be set when register_webhooks is enabled")
	}
	seenIDs := make(map[string]struct{}, len(c.Tenants))
	seenTokens := make(map[string]struct{}, len(c.Tenants))
	for _, t := range c.Tenants {
		if t.ID == "" {
			return fmt.Errorf("every tenant needs an id")
		}
		if _, dup := seenIDs[t.ID]; dup {
			return fmt.Errorf("duplicate tenant id %q", t.ID)
		}
		seenIDs[t.ID] = struct{}{}
		if t.Token != "" {
			if _, dup := seenTokens[t.Token]; dup {
				return fmt.Errorf("tenant %q reuses another tenant's token", t.ID)
			}
			seenTokens[t.Token] = struct{}{}
		}
	}
	return nil
}

// FetchTimeout returns the upstream fetch budget as a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Resolver.FetchTimeoutSeconds) * time.Second
}

// NavTimeout returns the browser navigation budget as a duration.
func (c Config) NavTimeout() time.Duration {
	return time.Duration(c.Browser.NavTimeoutSeconds) * time.Second
}

// CacheTTL returns the dynamic-link cache lifetime as a duration.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Resolver.CacheTTLMinutes) * time.Minute
}
