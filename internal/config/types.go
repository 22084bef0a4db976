package config

import "time"

// Config represents the complete zara-gw configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Server  ServerConfig  `yaml:"server"`
	Queue   QueueConfig   `yaml:"queue"`
	Slack   SlackConfig   `yaml:"slack"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// ServerConfig defines HTTP listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`

	// MaxBodySize caps request bodies, e.g. "1MB" or "2048576" (default: 1MB).
	MaxBodySize string `yaml:"max_body_size,omitempty"`

	// EventsToken is the bearer token protecting GET /events.
	// Empty disables the endpoint.
	EventsToken string `yaml:"events_token,omitempty"`
}

// QueueConfig defines the outbound queue channel.
type QueueConfig struct {
	// Driver selects the queue backend: "redis" or "sqlite".
	Driver string `yaml:"driver"`

	// RedisURL is the redis connection URL (driver=redis).
	RedisURL string `yaml:"redis_url,omitempty"`

	// Stream is the redis stream key messages are appended to.
	Stream string `yaml:"stream,omitempty"`

	// SQLitePath is the outbox database path (driver=sqlite).
	SQLitePath string `yaml:"sqlite_path,omitempty"`

	// PublishTimeout bounds the single network round-trip per publish.
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// SlackConfig defines Slack ingress settings.
type SlackConfig struct {
	// SigningSecret verifies X-Slack-Signature headers. Empty skips
	// verification unless Strict is set.
	SigningSecret string `yaml:"signing_secret,omitempty"`

	// Strict rejects requests when the secret or signature headers are
	// absent instead of trusting them.
	Strict bool `yaml:"strict"`

	// UsageText is the ephemeral reply for empty slash commands.
	UsageText string `yaml:"usage_text,omitempty"`
}

// Default values.
const (
	DefaultListen         = "127.0.0.1:8080"
	DefaultStream         = "zara:inbound"
	DefaultMaxBodySize    = 1048576 // 1 MB
	DefaultUsageText      = "Usage: /zara <your request>"
	DefaultPublishTimeout = 5 * time.Second
)
