// Package config loads WebPeel's YAML configuration the way
// ncecere-raito loads its own: a typed Config struct decoded with
// gopkg.in/yaml.v3 and validated at startup so a misconfigured LLM
// provider or webhook secret fails fast instead of on the first request.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ScraperConfig controls the simple-HTTP fetch tier (spec §4.3 step 2).
type ScraperConfig struct {
	UserAgent string `yaml:"userAgent"`
	TimeoutMs int    `yaml:"timeoutMs"`
}

// BrowserConfig controls the rendered-browser fetch tier (step 4).
type BrowserConfig struct {
	Enabled    bool `yaml:"enabled"`
	TimeoutMs  int  `yaml:"timeoutMs"`
	RaceAfterMs int `yaml:"raceAfterMs"`
}

// StealthConfig controls the stealth/undetected-browser tier (step 6).
type StealthConfig struct {
	Enabled   bool `yaml:"enabled"`
	TimeoutMs int  `yaml:"timeoutMs"`
}

type RobotsConfig struct {
	Respect bool `yaml:"respect"`
}

// CacheConfig sizes the stale-while-revalidate result cache (§4.1).
type CacheConfig struct {
	FreshSeconds int   `yaml:"freshSeconds"`
	StaleSeconds int   `yaml:"staleSeconds"`
	MaxEntries   int   `yaml:"maxEntries"`
	MaxBytes     int64 `yaml:"maxBytes"`
}

// DomainIntelConfig controls how long a domain's learned best-method
// recommendation is trusted before it is re-earned (§4.4).
type DomainIntelConfig struct {
	TTLMinutes int `yaml:"ttlMinutes"`
}

// CFWorkerConfig configures the Cloudflare Worker fallback tier.
type CFWorkerConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
}

// PeelTLSConfig configures the fingerprint-rotating HTTP fallback tier.
type PeelTLSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// GoogleCacheConfig configures the last-resort Google cache fallback.
type GoogleCacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// FallbacksConfig is the ordered fallback chain of spec §4.3 step 8.
type FallbacksConfig struct {
	CFWorker    CFWorkerConfig    `yaml:"cfworker"`
	PeelTLS     PeelTLSConfig     `yaml:"peeltls"`
	GoogleCache GoogleCacheConfig `yaml:"googlecache"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

// QuotaConfig carries the default plan limits applied to API keys that
// don't override them, per spec §4.10.
type QuotaConfig struct {
	DefaultWeeklyLimit int64   `yaml:"defaultWeeklyLimit"`
	DefaultBurstLimit  int64   `yaml:"defaultBurstLimit"`
	ExtraUsageEnabled  bool    `yaml:"extraUsageEnabled"`
	DefaultSpendLimit  float64 `yaml:"defaultSpendLimit"`
}

// WorkerConfig sizes the async job pool of spec §4.11 (C11/jobqueue).
type WorkerConfig struct {
	MaxConcurrentJobs       int `yaml:"maxConcurrentJobs"`
	MaxConcurrentURLsPerJob int `yaml:"maxConcurrentURLsPerJob"`
	SyncJobWaitTimeoutMs    int `yaml:"syncJobWaitTimeoutMs"`
}

// WatchConfig sizes the watch scheduler loop of spec §4.12.
type WatchConfig struct {
	PollIntervalSeconds int `yaml:"pollIntervalSeconds"`
	BatchSize           int `yaml:"batchSize"`
}

// RetentionConfig configures the retention sweep. Only
// CleanupIntervalMinutes is read (Server.RunRetentionLoop's interval);
// the sweep purges terminal jobs past the fixed 24h retention set in
// jobqueue. JobTTLHours and SnapshotTTLHours are not read, and
// changetrack snapshots are never purged.
type RetentionConfig struct {
	JobTTLHours       int `yaml:"jobTTLHours"`
	SnapshotTTLHours  int `yaml:"snapshotTTLHours"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
}

// SnapshotConfig points changetrack at its on-disk store (internal/changetrack).
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

type GoogleLLMConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// LLMConfig mirrors internal/llmx.Config's shape so main() can build one
// directly from the loaded YAML.
type LLMConfig struct {
	DefaultProvider string          `yaml:"defaultProvider"`
	TimeoutMs       int             `yaml:"timeoutMs"`
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Anthropic       AnthropicConfig `yaml:"anthropic"`
	Google          GoogleLLMConfig `yaml:"google"`
}

// AuthConfig controls API-key bootstrap; WebPeel has no tenant or OIDC
// concept, only the hashed API-key check of spec §9.
type AuthConfig struct {
	InitialAdminKey string `yaml:"initialAdminKey"`
}

// WebhookConfig signs outbound job/watch webhook payloads (§4.11, §4.12).
type WebhookConfig struct {
	Secret string `yaml:"secret"`
}

type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Scraper   ScraperConfig     `yaml:"scraper"`
	Browser   BrowserConfig     `yaml:"browser"`
	Stealth   StealthConfig     `yaml:"stealth"`
	Robots    RobotsConfig      `yaml:"robots"`
	Cache     CacheConfig       `yaml:"cache"`
	DomainIntel DomainIntelConfig `yaml:"domainIntel"`
	Fallbacks FallbacksConfig   `yaml:"fallbacks"`
	Database  DatabaseConfig    `yaml:"database"`
	Redis     RedisConfig       `yaml:"redis"`
	Quota     QuotaConfig       `yaml:"quota"`
	Worker    WorkerConfig      `yaml:"worker"`
	Watch     WatchConfig       `yaml:"watch"`
	Retention RetentionConfig   `yaml:"retention"`
	Snapshot  SnapshotConfig    `yaml:"snapshot"`
	LLM       LLMConfig         `yaml:"llm"`
	Auth      AuthConfig        `yaml:"auth"`
	Webhook   WebhookConfig     `yaml:"webhook"`
}

func Load(path string) *Config {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	return &cfg
}

// Validate performs basic sanity checks on the loaded configuration,
// focusing on the LLM provider (so an unusable extractor fails at
// startup, not mid-request) and the webhook secret (required once any
// job or watch can carry a webhookUrl).
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	provider := strings.TrimSpace(cfg.LLM.DefaultProvider)
	if provider != "" {
		switch provider {
		case "openai":
			if cfg.LLM.OpenAI.APIKey == "" || cfg.LLM.OpenAI.Model == "" {
				return errors.New("openai llm provider is not fully configured")
			}
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey == "" || cfg.LLM.Anthropic.Model == "" {
				return errors.New("anthropic llm provider is not fully configured")
			}
		case "google":
			if cfg.LLM.Google.APIKey == "" || cfg.LLM.Google.Model == "" {
				return errors.New("google llm provider is not fully configured")
			}
		default:
			return fmt.Errorf("unsupported llm.defaultProvider: %s", provider)
		}
	}

	if cfg.Fallbacks.CFWorker.Enabled && strings.TrimSpace(cfg.Fallbacks.CFWorker.URL) == "" {
		return errors.New("fallbacks.cfworker is enabled but url is missing")
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return errors.New("database.dsn must be set")
	}

	if strings.TrimSpace(cfg.Webhook.Secret) == "" {
		return errors.New("webhook.secret must be set to sign outbound job/watch callbacks")
	}

	return nil
}

// ScraperTimeout returns the configured scraper timeout, defaulting to
// 10s when unset.
func (cfg *Config) ScraperTimeout() time.Duration {
	if cfg.Scraper.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(cfg.Scraper.TimeoutMs) * time.Millisecond
}
