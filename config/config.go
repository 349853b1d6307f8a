package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Links    LinksConfig    `yaml:"links"`
	Payment  PaymentConfig  `yaml:"payment"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	AlertsTopic        string   `yaml:"alerts_topic"`
	GroupID            string   `yaml:"group_id"`
}

type LinksConfig struct {
	// BaseURL is the public origin guests open emailed links against.
	BaseURL     string `yaml:"base_url"`
	ActiveKeyID string `yaml:"active_key_id"`
}

type PaymentConfig struct {
	SignatureToleranceSeconds int `yaml:"signature_tolerance_seconds"`
	ViewCacheTTLSeconds       int `yaml:"view_cache_ttl_seconds"`
}

type WorkerConfig struct {
	ReminderSweepMinutes int `yaml:"reminder_sweep_minutes"`
	ReminderAfterMinutes int `yaml:"reminder_after_minutes"`
	ReminderBatchSize    int `yaml:"reminder_batch_size"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// Secrets are never kept in the yaml file; they come from the environment
// (or a .env file in development).
type Secrets struct {
	// CapabilityKeys is the versioned keyring, parsed from CAPABILITY_KEYS
	// of the form "kid:secret,kid2:secret2".
	CapabilityKeys map[string][]byte
	// WebhookSecret is the processor-issued endpoint signing secret.
	WebhookSecret []byte
}

func LoadSecrets() (*Secrets, error) {
	raw := os.Getenv("CAPABILITY_KEYS")
	if raw == "" {
		return nil, fmt.Errorf("CAPABILITY_KEYS is not set")
	}
	keys := make(map[string][]byte)
	for _, pair := range strings.Split(raw, ",") {
		id, secret, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || id == "" || secret == "" {
			return nil, fmt.Errorf("malformed CAPABILITY_KEYS entry %q", pair)
		}
		keys[id] = []byte(secret)
	}

	webhookSecret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_WEBHOOK_SECRET is not set")
	}

	return &Secrets{CapabilityKeys: keys, WebhookSecret: []byte(webhookSecret)}, nil
}
