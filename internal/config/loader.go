package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "FRAUD"

// Load builds the configuration from defaults, the optional YAML file at path
// and FRAUD_* environment variables, in increasing order of precedence.
// FRAUD_STORAGE_DRIVER overrides storage.driver, and so on.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("storage.driver", d.Storage.Driver)
	v.SetDefault("storage.dsn", d.Storage.DSN)

	for category, threshold := range d.Rules.CategoryThresholds {
		v.SetDefault("rules.category_thresholds."+strings.ToLower(category), threshold)
	}
	v.SetDefault("rules.default_threshold", d.Rules.DefaultThreshold)
	v.SetDefault("rules.blacklisted_merchants", d.Rules.BlacklistedMerchants)
	v.SetDefault("rules.home_country", d.Rules.HomeCountry)
	v.SetDefault("rules.foreign_high_amount", d.Rules.ForeignHighAmount)
	v.SetDefault("rules.velocity_window", d.Rules.VelocityWindow)
	v.SetDefault("rules.velocity_count", d.Rules.VelocityCount)
	v.SetDefault("rules.odd_hours_start", d.Rules.OddHoursStart)
	v.SetDefault("rules.odd_hours_end", d.Rules.OddHoursEnd)
	v.SetDefault("rules.odd_hours_high_amount", d.Rules.OddHoursHighAmount)
	v.SetDefault("rules.new_device_high_amount", d.Rules.NewDeviceHighAmount)
	v.SetDefault("rules.timezone", d.Rules.Timezone)

	v.SetDefault("notification.workers", d.Notification.Workers)
	v.SetDefault("notification.queue_size", d.Notification.QueueSize)
	v.SetDefault("notification.send_timeout", d.Notification.SendTimeout)
	v.SetDefault("notification.mail.host", d.Notification.Mail.Host)
	v.SetDefault("notification.mail.port", d.Notification.Mail.Port)
	v.SetDefault("notification.mail.username", d.Notification.Mail.Username)
	v.SetDefault("notification.mail.password", d.Notification.Mail.Password)
	v.SetDefault("notification.mail.from", d.Notification.Mail.From)
	v.SetDefault("notification.whatsapp.account_sid", d.Notification.WhatsApp.AccountSID)
	v.SetDefault("notification.whatsapp.auth_token", d.Notification.WhatsApp.AuthToken)
	v.SetDefault("notification.whatsapp.from", d.Notification.WhatsApp.From)
	v.SetDefault("notification.whatsapp.base_url", d.Notification.WhatsApp.BaseURL)
	v.SetDefault("notification.kafka.brokers", d.Notification.Kafka.Brokers)
	v.SetDefault("notification.kafka.topic", d.Notification.Kafka.Topic)

	v.SetDefault("security.signing_secret", d.Security.SigningSecret)
}
