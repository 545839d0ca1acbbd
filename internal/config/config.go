package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/happycapy/capy-community-backend/internal/logger"
	"github.com/happycapy/capy-community-backend/internal/utils"
)

const (
	StoreModePostgres = "postgres"
	StoreModeMock     = "mock"
)

// Config is built once at process start and handed to constructors. There is
// no module-level mode flag; the store mode travels with the config.
type Config struct {
	LogMode string        `yaml:"log_mode"`
	Port    string        `yaml:"port"`
	Store   StoreConfig   `yaml:"store"`
	Gateway GatewayConfig `yaml:"gateway"`
	Media   MediaConfig   `yaml:"media"`
	Runner  RunnerConfig  `yaml:"runner"`
}

type StoreConfig struct {
	Mode     string `yaml:"mode"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

type GatewayConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MediaConfig struct {
	Dir      string `yaml:"dir"`
	FontPath string `yaml:"font_path"`
}

type RunnerConfig struct {
	Schedule    string `yaml:"schedule"`
	Parallelism int    `yaml:"parallelism"`
	PostLimit   int    `yaml:"post_limit"`
}

// Load reads the optional YAML file named by CONFIG_PATH (default
// config.yaml), then applies environment overrides on top.
func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{
		LogMode: "development",
		Port:    "8080",
		Store: StoreConfig{
			Mode: StoreModeMock,
			Host: "localhost",
			Port: "5432",
			User: "postgres",
			Name: "capy_community",
		},
		Gateway: GatewayConfig{
			BaseURL:        "https://ai-gateway.happycapy.ai/api/v1/openai/v1",
			TimeoutSeconds: 30,
		},
		Media: MediaConfig{
			Dir: "./media",
		},
		Runner: RunnerConfig{
			Schedule:    "@every 1h",
			Parallelism: 4,
			PostLimit:   10,
		},
	}

	path := utils.GetEnv("CONFIG_PATH", "config.yaml", log)
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	case os.IsNotExist(err):
		if log != nil {
			log.Debug("No config file found, using defaults and environment", "path", path)
		}
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.LogMode = utils.GetEnv("LOG_MODE", cfg.LogMode, log)
	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.Store.Mode = strings.ToLower(utils.GetEnv("STORE_MODE", cfg.Store.Mode, log))
	cfg.Store.Host = utils.GetEnv("POSTGRES_HOST", cfg.Store.Host, log)
	cfg.Store.Port = utils.GetEnv("POSTGRES_PORT", cfg.Store.Port, log)
	cfg.Store.User = utils.GetEnv("POSTGRES_USER", cfg.Store.User, log)
	cfg.Store.Password = utils.GetEnv("POSTGRES_PASSWORD", cfg.Store.Password, log)
	cfg.Store.Name = utils.GetEnv("POSTGRES_NAME", cfg.Store.Name, log)
	cfg.Gateway.BaseURL = utils.GetEnv("AI_GATEWAY_BASE_URL", cfg.Gateway.BaseURL, log)
	cfg.Gateway.APIKey = utils.GetEnv("AI_GATEWAY_API_KEY", cfg.Gateway.APIKey, log)
	cfg.Gateway.TimeoutSeconds = utils.GetEnvAsInt("AI_GATEWAY_TIMEOUT_SECONDS", cfg.Gateway.TimeoutSeconds, log)
	cfg.Media.Dir = utils.GetEnv("MEDIA_DIR", cfg.Media.Dir, log)
	cfg.Media.FontPath = utils.GetEnv("AVATAR_FONT", cfg.Media.FontPath, log)
	cfg.Runner.Schedule = utils.GetEnv("RUNNER_SCHEDULE", cfg.Runner.Schedule, log)
	cfg.Runner.Parallelism = utils.GetEnvAsInt("RUNNER_PARALLELISM", cfg.Runner.Parallelism, log)
	cfg.Runner.PostLimit = utils.GetEnvAsInt("RUNNER_POST_LIMIT", cfg.Runner.PostLimit, log)

	if cfg.Store.Mode != StoreModePostgres && cfg.Store.Mode != StoreModeMock {
		return nil, fmt.Errorf("unknown store mode %q", cfg.Store.Mode)
	}
	return cfg, nil
}
