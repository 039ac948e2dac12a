// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// RatePerMinute caps public checkout submissions per client IP.
	RatePerMinute int    `yaml:"rate_per_minute"`
	AdminAPIKey   string `yaml:"admin_api_key"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type GatewayConfig struct {
	FliPay struct {
		MerchantID    string `yaml:"merchant_id"`
		SigningSecret string `yaml:"signing_secret"`
		BaseURL       string `yaml:"base_url"`
		CallbackPath  string `yaml:"callback_path"`
		Sandbox       bool   `yaml:"sandbox"`
	} `yaml:"flipay"`
}

type NotifierConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	From    string        `yaml:"from"`
	Timeout time.Duration `yaml:"timeout"`
}

type WorkerConfig struct {
	SweepInterval time.Duration `yaml:"sweep_interval"`
	// StaleAfter is how old a pending session must be before the reconcile
	// worker re-checks it with the gateway.
	StaleAfter        time.Duration `yaml:"stale_after"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Gateway  GatewayConfig  `yaml:"gateway"`
	Notifier NotifierConfig `yaml:"notifier"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// env overrides beat the file for deploy-time secrets
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("FLIPAY_SIGNING_SECRET"); v != "" {
		cfg.Gateway.FliPay.SigningSecret = v
	}
	if v := os.Getenv("NOTIFIER_API_KEY"); v != "" {
		cfg.Notifier.APIKey = v
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RatePerMinute <= 0 {
		cfg.Server.RatePerMinute = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Gateway.FliPay.CallbackPath == "" {
		cfg.Gateway.FliPay.CallbackPath = "/api/v1/payments/callback"
	}
	if cfg.Notifier.Timeout <= 0 {
		cfg.Notifier.Timeout = 10 * time.Second
	}
	if cfg.Worker.SweepInterval <= 0 {
		cfg.Worker.SweepInterval = time.Hour
	}
	if cfg.Worker.StaleAfter <= 0 {
		cfg.Worker.StaleAfter = 10 * time.Minute
	}
	if cfg.Worker.ReconcileInterval <= 0 {
		cfg.Worker.ReconcileInterval = time.Minute
	}

	// Minimal validation. Dev mode may run without FliPay credentials; the
	// app falls back to the noop gateway then.
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if !dev {
		if cfg.Gateway.FliPay.MerchantID == "" {
			return nil, errors.New("gateway.flipay.merchant_id is required")
		}
		if cfg.Gateway.FliPay.SigningSecret == "" {
			return nil, errors.New("gateway.flipay.signing_secret is required")
		}
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return 48 * time.Hour
	}
	return d
}
