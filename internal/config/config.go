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
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"` // bearer key for the internal endpoints
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type PayPalConfig struct {
	ClientID  string        `yaml:"client_id"`
	Secret    string        `yaml:"secret"`
	APIURL    string        `yaml:"api_url"` // sandbox or live base, e.g. https://api-m.sandbox.paypal.com
	WebhookID string        `yaml:"webhook_id"`
	ReturnURL string        `yaml:"return_url"`
	Timeout   time.Duration `yaml:"timeout"` // bound on outbound verification calls
}

type StripeConfig struct {
	SecretKey     string        `yaml:"secret_key"`
	WebhookSecret string        `yaml:"webhook_secret"`
	SuccessURL    string        `yaml:"success_url"`
	CancelURL     string        `yaml:"cancel_url"`
	Timeout       time.Duration `yaml:"timeout"`
}

type PaymentConfig struct {
	PayPal PayPalConfig `yaml:"paypal"`
	Stripe StripeConfig `yaml:"stripe"`
}

type NotifierConfig struct {
	URL    string `yaml:"url"` // internal email-service endpoint; empty = noop
	APIKey string `yaml:"api_key"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Notifier NotifierConfig `yaml:"notifier"`

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

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Payment.PayPal.APIURL == "" {
		cfg.Payment.PayPal.APIURL = "https://api-m.sandbox.paypal.com"
	}
	if cfg.Payment.PayPal.Timeout <= 0 {
		cfg.Payment.PayPal.Timeout = 10 * time.Second
	}
	if cfg.Payment.Stripe.Timeout <= 0 {
		cfg.Payment.Stripe.Timeout = 10 * time.Second
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Payment.PayPal.ClientID == "" || cfg.Payment.PayPal.Secret == "" {
		return nil, errors.New("payment.paypal.client_id and payment.paypal.secret are required")
	}
	if cfg.Payment.PayPal.WebhookID == "" {
		return nil, errors.New("payment.paypal.webhook_id is required")
	}
	if cfg.Payment.Stripe.SecretKey == "" || cfg.Payment.Stripe.WebhookSecret == "" {
		return nil, errors.New("payment.stripe.secret_key and payment.stripe.webhook_secret are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
