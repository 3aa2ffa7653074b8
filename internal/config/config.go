package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-core-fx/config"
)

type http struct {
	Address     string   `koanf:"address"`
	ProxyHeader string   `koanf:"proxy_header"`
	Proxies     []string `koanf:"proxies"`
}

type storageConfig struct {
	DataDir  string `koanf:"data_dir"`
	InMemory bool   `koanf:"in_memory"`
}

type gitConfig struct {
	Backend  string `koanf:"backend"`
	Binary   string `koanf:"binary"`
	UserHome string `koanf:"user_home"`
}

type cacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

type watchConfig struct {
	Debounce time.Duration `koanf:"debounce"`
}

type Config struct {
	HTTP http `koanf:"http"`

	Storage storageConfig `koanf:"storage"`
	Git     gitConfig     `koanf:"git"`
	Cache   cacheConfig   `koanf:"cache"`
	Watch   watchConfig   `koanf:"watch"`
}

func Default() Config {
	//nolint:exhaustruct,mnd //default values
	return Config{
		HTTP: http{
			Address:     "127.0.0.1:3000",
			ProxyHeader: "X-Forwarded-For",
			Proxies:     []string{},
		},

		Storage: storageConfig{
			DataDir: "./data",
		},

		Git: gitConfig{
			Backend: "native",
			Binary:  "git",
		},

		Cache: cacheConfig{
			TTL: 7 * 24 * time.Hour,
		},

		Watch: watchConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

func New() (Config, error) {
	cfg := Default()

	options := []config.Option{}
	if yamlPath := os.Getenv("CONFIG_PATH"); yamlPath != "" {
		options = append(options, config.WithLocalYAML(yamlPath))
	}

	if err := config.Load(&cfg, options...); err != nil {
		return Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
