// Package config loads chatter.yaml and applies CHATTER_* environment overrides.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/chatter/pkg/resolver"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "chatter.yaml"

// Storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendFile   = "file"
)

type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Log     LogConfig      `yaml:"log"`
	Storage StorageConfig  `yaml:"storage"`
	Widget  WidgetConfig   `yaml:"widget"`
	FAQs    []resolver.FAQ `yaml:"faqs"`
}

type ServerConfig struct {
	Addr     string `yaml:"addr"`
	ClientID string `yaml:"client_id"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type StorageConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisConfig  `yaml:"redis"`
	File    FileConfig   `yaml:"file"`

	// EncryptionKey is a base64 AES-256 key sealing lead fields at rest. Empty disables it.
	EncryptionKey string   `yaml:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys"`
	// Redact lists patterns of lead fields (name, email, phone, message) masked before saving.
	Redact []string `yaml:"redact"`
}

// Keys decodes the encryption keys. It returns a nil active key when encryption is off.
func (s StorageConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("storage.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("not base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

type FileConfig struct {
	Path string `yaml:"path"`
}

// WidgetConfig is used by the terminal widget and remote rule editing.
type WidgetConfig struct {
	APIURL   string        `yaml:"api_url"`
	ClientID string        `yaml:"client_id"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080", ClientID: "default"},
		Log:    LogConfig{Level: "info", Format: "text"},
		Storage: StorageConfig{
			Backend: BackendMemory,
			SQLite:  SQLiteConfig{Path: "chatter.db"},
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "chatter:"},
			File:    FileConfig{Path: "flow.yaml"},
		},
		Widget: WidgetConfig{
			APIURL:   "http://localhost:8080",
			ClientID: "default",
			Timeout:  15 * time.Second,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error when path is DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (c *Config) applyEnv() error {
	c.Server.Addr = getEnv("CHATTER_ADDR", c.Server.Addr)
	c.Server.ClientID = getEnv("CHATTER_CLIENT_ID", c.Server.ClientID)
	c.Log.Level = getEnv("CHATTER_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("CHATTER_LOG_FORMAT", c.Log.Format)
	c.Storage.Backend = getEnv("CHATTER_STORAGE", c.Storage.Backend)
	c.Storage.SQLite.Path = getEnv("CHATTER_SQLITE_PATH", c.Storage.SQLite.Path)
	c.Storage.Redis.Addr = getEnv("CHATTER_REDIS_ADDR", c.Storage.Redis.Addr)
	c.Storage.Redis.Password = getEnv("CHATTER_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.Redis.Prefix = getEnv("CHATTER_REDIS_PREFIX", c.Storage.Redis.Prefix)
	c.Storage.File.Path = getEnv("CHATTER_FLOW_FILE", c.Storage.File.Path)
	c.Storage.EncryptionKey = getEnv("CHATTER_ENCRYPTION_KEY", c.Storage.EncryptionKey)
	c.Widget.APIURL = getEnv("CHATTER_API_URL", c.Widget.APIURL)
	c.Widget.ClientID = getEnv("CHATTER_WIDGET_CLIENT_ID", c.Widget.ClientID)

	if v := os.Getenv("CHATTER_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHATTER_REDIS_DB: %w", err)
		}
		c.Storage.Redis.DB = db
	}
	if v := os.Getenv("CHATTER_WIDGET_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHATTER_WIDGET_TIMEOUT: %w", err)
		}
		c.Widget.Timeout = d
	}
	return nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var problems []string
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Storage.SQLite.Path == "" {
			problems = append(problems, "storage.sqlite.path is required")
		}
	case BackendRedis:
		if c.Storage.Redis.Addr == "" {
			problems = append(problems, "storage.redis.addr is required")
		}
	case BackendFile:
		if c.Storage.File.Path == "" {
			problems = append(problems, "storage.file.path is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.backend %q", c.Storage.Backend))
	}
	if _, _, err := c.Storage.Keys(); err != nil {
		problems = append(problems, err.Error())
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("unknown log.format %q", c.Log.Format))
	}
	if c.Widget.Timeout <= 0 {
		problems = append(problems, "widget.timeout must be positive")
	}
	for i, f := range c.FAQs {
		if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
			problems = append(problems, fmt.Sprintf("faqs[%d] needs a question and an answer", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
