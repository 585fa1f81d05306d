package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Log          LogConfig          `mapstructure:"log"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Rules        RulesConfig        `mapstructure:"rules"`
	Notification NotificationConfig `mapstructure:"notification"`
	Security     SecurityConfig     `mapstructure:"security"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// RulesConfig is the file/env form of the rule set. Amounts are decimal
// strings so they survive YAML and environment variables exactly.
type RulesConfig struct {
	CategoryThresholds   map[string]string `mapstructure:"category_thresholds"`
	DefaultThreshold     string            `mapstructure:"default_threshold"`
	BlacklistedMerchants []string          `mapstructure:"blacklisted_merchants"`
	HomeCountry          string            `mapstructure:"home_country"`
	ForeignHighAmount    string            `mapstructure:"foreign_high_amount"`
	VelocityWindow       time.Duration     `mapstructure:"velocity_window"`
	VelocityCount        int               `mapstructure:"velocity_count"`
	OddHoursStart        int               `mapstructure:"odd_hours_start"`
	OddHoursEnd          int               `mapstructure:"odd_hours_end"`
	OddHoursHighAmount   string            `mapstructure:"odd_hours_high_amount"`
	NewDeviceHighAmount  string            `mapstructure:"new_device_high_amount"`
	Timezone             string            `mapstructure:"timezone"`
}

type NotificationConfig struct {
	Workers     int            `mapstructure:"workers"`
	QueueSize   int            `mapstructure:"queue_size"`
	SendTimeout time.Duration  `mapstructure:"send_timeout"`
	Mail        MailConfig     `mapstructure:"mail"`
	WhatsApp    WhatsAppConfig `mapstructure:"whatsapp"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

type WhatsAppConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	From       string `mapstructure:"from"`
	BaseURL    string `mapstructure:"base_url"`
}

func (w WhatsAppConfig) Enabled() bool {
	return w.AccountSID != "" && w.AuthToken != "" && w.From != ""
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

type SecurityConfig struct {
	SigningSecret string `mapstructure:"signing_secret"`
}

// Validate checks the values that cannot be caught by decoding alone.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverMySQL:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	if c.Notification.Workers < 0 {
		return fmt.Errorf("notification.workers must not be negative")
	}

	if _, err := c.RuleConfig(); err != nil {
		return err
	}
	return nil
}
