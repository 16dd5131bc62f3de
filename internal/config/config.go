package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends selectable in config.
const (
	StorageFile  = "file"
	StorageRedis = "redis"
)

type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Path    string      `yaml:"path"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type ConfigFile struct {
	Backend BackendConfig `yaml:"backend"`
	Storage StorageConfig `yaml:"storage"`
}

// Config is the resolved client configuration.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	StorageBackend string
	StoragePath    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// DefaultPath returns the default config file location under the user's
// home directory.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "uploadctl.yml"
	}
	return filepath.Join(home, ".uploadctl", "config.yml")
}

// Load reads configuration from the given YAML file, falling back to
// defaults and environment variables when the file is absent. A missing
// file is not an error: the client is usable with just UPLOADDOC_API_URL.
func Load(path string) (*Config, error) {
	cfg := &Config{
		BaseURL:        env("UPLOADDOC_API_URL", "https://upload-doc-backend.vercel.app"),
		RequestTimeout: 20 * time.Second,
		StorageBackend: StorageFile,
		StoragePath:    defaultStoragePath(),
		RedisAddr:      env("UPLOADDOC_REDIS_ADDR", "localhost:6379"),
		RedisKeyPrefix: "uploaddoc:",
	}

	file, err := loadConfigFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if file.Backend.BaseURL != "" {
		cfg.BaseURL = file.Backend.BaseURL
	}
	if file.Backend.Timeout != "" {
		timeout, err := time.ParseDuration(file.Backend.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid backend timeout: %w", err)
		}
		cfg.RequestTimeout = timeout
	}
	if file.Storage.Backend != "" {
		if file.Storage.Backend != StorageFile && file.Storage.Backend != StorageRedis {
			return nil, fmt.Errorf("unknown storage backend %q", file.Storage.Backend)
		}
		cfg.StorageBackend = file.Storage.Backend
	}
	if file.Storage.Path != "" {
		cfg.StoragePath = file.Storage.Path
	}
	if file.Storage.Redis.Addr != "" {
		cfg.RedisAddr = file.Storage.Redis.Addr
	}
	cfg.RedisPassword = file.Storage.Redis.Password
	cfg.RedisDB = file.Storage.Redis.DB
	if file.Storage.Redis.KeyPrefix != "" {
		cfg.RedisKeyPrefix = file.Storage.Redis.KeyPrefix
	}

	return cfg, nil
}

func loadConfigFile(path string) (*ConfigFile, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config ConfigFile
	if err := yaml.Unmarshal(bytes, &config); err != nil {
		return nil, fmt.Errorf("could not parse config yaml at %s: %w", path, err)
	}

	return &config, nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "uploadctl-session.json"
	}
	return filepath.Join(home, ".uploadctl", "session.json")
}
