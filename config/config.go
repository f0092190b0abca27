package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/Kamaljeyaram/Matrix/internal/email"
	"github.com/Kamaljeyaram/Matrix/internal/repository/postgres"
	"github.com/Kamaljeyaram/Matrix/internal/telegram"
	"github.com/Kamaljeyaram/Matrix/pkg/messaging/redis"
	"github.com/Kamaljeyaram/Matrix/pkg/worker"
)

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type TelegramConfig struct {
	Token      string        `mapstructure:"token"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
}

type MeetingConfig struct {
	LinkBase   string        `mapstructure:"link_base"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

type NotifierConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryBackoff  time.Duration `mapstructure:"retry_backoff"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	CleanupAfter  time.Duration `mapstructure:"cleanup_after"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type Config struct {
	Server    ServerConfig      `mapstructure:"server"`
	Database  postgres.DBConfig `mapstructure:"database"`
	Redis     RedisConfig       `mapstructure:"redis"`
	Telegram  TelegramConfig    `mapstructure:"telegram"`
	Email     email.Config      `mapstructure:"email"`
	Meeting   MeetingConfig     `mapstructure:"meeting"`
	Notifier  NotifierConfig    `mapstructure:"notifier"`
	RateLimit RateLimitConfig   `mapstructure:"rate_limit"`
}

// secrets come from the environment only, never from the config file
type secretOverrides struct {
	DatabasePassword string `envconfig:"DB_PASSWORD"`
	TelegramToken    string `envconfig:"TELEGRAM_BOT_TOKEN"`
	SMTPPassword     string `envconfig:"SMTP_PASSWORD"`
	RedisURL         string `envconfig:"REDIS_URL"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/app")
	viper.AddConfigPath("/app/config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets secretOverrides
	if err := envconfig.Process("", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if secrets.DatabasePassword != "" {
		config.Database.Password = secrets.DatabasePassword
	}
	if secrets.TelegramToken != "" {
		config.Telegram.Token = secrets.TelegramToken
	}
	if secrets.SMTPPassword != "" {
		config.Email.Password = secrets.SMTPPassword
	}
	if secrets.RedisURL != "" {
		config.Redis.URL = secrets.RedisURL
	}

	return &config, nil
}

func (c *TelegramConfig) ToClientConfig() telegram.Config {
	return telegram.Config{
		Token:      c.Token,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		Backoff:    c.Backoff,
	}
}

func (c *NotifierConfig) ToWorkerConfig(staleAfter time.Duration) worker.NotifierConfig {
	return worker.NotifierConfig{
		BatchSize:     c.BatchSize,
		PollInterval:  c.PollInterval,
		MaxRetries:    c.MaxRetries,
		RetryBackoff:  c.RetryBackoff,
		StaleAfter:    staleAfter,
		SweepInterval: c.SweepInterval,
		CleanupAfter:  c.CleanupAfter,
	}
}

func (c *RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		MaxRetries:   c.MaxRetries,
		RetryBackoff: c.RetryBackoff,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
}
