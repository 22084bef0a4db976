package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file.
// ${VAR} placeholders are expanded from the environment before parsing.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		// Directory provided - look for config.yaml inside
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}

	cfg = applyDefaults(cfg)

	// Hash-verify the configuration file when a .checksums manifest exists.
	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	interpolated := interpolateEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	return cfg, nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// If not found, leave the placeholder (will fail validation if required)
		return match
	})
}

// applyDefaults fills unset fields with sensible defaults.
func applyDefaults(cfg *Config) *Config {
	if cfg.Service.Name == "" {
		cfg.Service.Name = "zara-gw"
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = "info"
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = "json"
	}
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = DefaultListen
	}
	if cfg.Queue.Driver == "" {
		cfg.Queue.Driver = "redis"
	}
	if cfg.Queue.Stream == "" {
		cfg.Queue.Stream = DefaultStream
	}
	if cfg.Queue.PublishTimeout <= 0 {
		cfg.Queue.PublishTimeout = DefaultPublishTimeout
	}
	if cfg.Slack.UsageText == "" {
		cfg.Slack.UsageText = DefaultUsageText
	}
	if envVarPattern.MatchString(cfg.Server.EventsToken) {
		// Token env var unset; disable the endpoint rather than shipping a
		// literal placeholder as the bearer token.
		cfg.Server.EventsToken = ""
	}
	return cfg
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[strings.ToLower(cfg.Service.LogFormat)] {
		return fmt.Errorf("service.log_format must be one of: json, text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if _, err := ParseMaxBodySize(cfg.Server.MaxBodySize); err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}

	switch cfg.Queue.Driver {
	case "redis":
		if cfg.Queue.RedisURL == "" || envVarPattern.MatchString(cfg.Queue.RedisURL) {
			return fmt.Errorf("queue.redis_url is required when queue.driver is redis")
		}
		if cfg.Queue.Stream == "" {
			return fmt.Errorf("queue.stream is required when queue.driver is redis")
		}
	case "sqlite":
		if cfg.Queue.SQLitePath == "" {
			return fmt.Errorf("queue.sqlite_path is required when queue.driver is sqlite")
		}
	default:
		return fmt.Errorf("queue.driver must be one of: redis, sqlite (got %q)", cfg.Queue.Driver)
	}

	// An unresolved ${VAR} placeholder means the secret env var was not set.
	if envVarPattern.MatchString(cfg.Slack.SigningSecret) {
		matches := envVarPattern.FindStringSubmatch(cfg.Slack.SigningSecret)
		return fmt.Errorf("slack.signing_secret references undefined environment variable %s", matches[0])
	}
	if cfg.Slack.Strict && cfg.Slack.SigningSecret == "" {
		return fmt.Errorf("slack.strict requires slack.signing_secret to be set")
	}

	return nil
}

// ParseMaxBodySize parses size strings like "1MB", "512KB", "2048576" to bytes.
// Returns DefaultMaxBodySize if empty.
func ParseMaxBodySize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(size)
	multiplier := int64(1)

	if strings.HasSuffix(upper, "KB") {
		multiplier = 1024
		size = strings.TrimSuffix(upper, "KB")
	} else if strings.HasSuffix(upper, "MB") {
		multiplier = 1024 * 1024
		size = strings.TrimSuffix(upper, "MB")
	} else if strings.HasSuffix(upper, "GB") {
		multiplier = 1024 * 1024 * 1024
		size = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(size), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}

	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result < 0 { // Check for overflow
		return 0, fmt.Errorf("size too large")
	}

	return result, nil
}
