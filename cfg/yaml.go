package cfg

import (
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// fileConfig mirrors Config for the optional YAML overlay. Only fields
// present in the file override the env-derived values.
type fileConfig struct {
	AppEnv string `yaml:"appEnv"`
	API    struct {
		BaseURL string `yaml:"baseUrl"`
		Timeout string `yaml:"timeout"`
	} `yaml:"api"`
	Storage struct {
		Backend   string `yaml:"backend"`
		Dir       string `yaml:"dir"`
		RedisAddr string `yaml:"redisAddr"`
	} `yaml:"storage"`
	Polling struct {
		Interval string `yaml:"interval"`
	} `yaml:"polling"`
}

// ApplyFile overlays settings from a YAML file onto an existing config. A
// missing file is not an error; a malformed one is.
func ApplyFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cfg: failed to read %s: %w", path, err)
	}

	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("cfg: failed to parse %s: %w", path, err)
	}

	if overlay.AppEnv != "" {
		config.AppEnv = overlay.AppEnv
	}
	if overlay.API.BaseURL != "" {
		config.API.BaseURL = overlay.API.BaseURL
	}
	if overlay.API.Timeout != "" {
		timeout, err := time.ParseDuration(overlay.API.Timeout)
		if err != nil {
			return fmt.Errorf("cfg: invalid api.timeout: %w", err)
		}
		config.API.Timeout = timeout
	}
	if overlay.Storage.Backend != "" {
		config.Storage.Backend = StorageBackend(overlay.Storage.Backend)
	}
	if overlay.Storage.Dir != "" {
		config.Storage.Dir = overlay.Storage.Dir
	}
	if overlay.Storage.RedisAddr != "" {
		config.Storage.RedisAddr = overlay.Storage.RedisAddr
	}
	if overlay.Polling.Interval != "" {
		interval, err := time.ParseDuration(overlay.Polling.Interval)
		if err != nil {
			return fmt.Errorf("cfg: invalid polling.interval: %w", err)
		}
		config.Polling.Interval = interval
	}

	return nil
}
