package config

import (
	"fmt"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/processor"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RuleConfig converts the rules section into the engine's configuration.
// Category keys are matched case-insensitively because viper lower-cases map
// keys.
func (c *Config) RuleConfig() (processor.RuleConfig, error) {
	r := c.Rules
	cfg := processor.RuleConfig{
		CategoryThresholds:   make(map[domain.Category]decimal.Decimal, len(r.CategoryThresholds)),
		BlacklistedMerchants: make(map[string]struct{}, len(r.BlacklistedMerchants)),
		HomeCountry:          strings.ToUpper(strings.TrimSpace(r.HomeCountry)),
		VelocityWindow:       r.VelocityWindow,
		VelocityCount:        r.VelocityCount,
		OddHoursStart:        r.OddHoursStart,
		OddHoursEnd:          r.OddHoursEnd,
	}

	for key, raw := range r.CategoryThresholds {
		category := domain.Category(strings.ToUpper(key))
		if !category.Valid() {
			return processor.RuleConfig{}, fmt.Errorf("rules.category_thresholds: unknown category %q", key)
		}
		amount, err := parseAmount("rules.category_thresholds."+key, raw)
		if err != nil {
			return processor.RuleConfig{}, err
		}
		cfg.CategoryThresholds[category] = amount
	}

	for _, merchant := range r.BlacklistedMerchants {
		if merchant = strings.TrimSpace(merchant); merchant != "" {
			cfg.BlacklistedMerchants[strings.ToUpper(merchant)] = struct{}{}
		}
	}

	amounts := []struct {
		key    string
		raw    string
		target *decimal.Decimal
	}{
		{"rules.default_threshold", r.DefaultThreshold, &cfg.DefaultThreshold},
		{"rules.foreign_high_amount", r.ForeignHighAmount, &cfg.ForeignHighAmount},
		{"rules.odd_hours_high_amount", r.OddHoursHighAmount, &cfg.OddHoursHighAmount},
		{"rules.new_device_high_amount", r.NewDeviceHighAmount, &cfg.NewDeviceHighAmount},
	}
	for _, a := range amounts {
		amount, err := parseAmount(a.key, a.raw)
		if err != nil {
			return processor.RuleConfig{}, err
		}
		*a.target = amount
	}

	if cfg.VelocityWindow <= 0 {
		return processor.RuleConfig{}, fmt.Errorf("rules.velocity_window must be positive")
	}
	if cfg.VelocityCount <= 0 {
		return processor.RuleConfig{}, fmt.Errorf("rules.velocity_count must be positive")
	}
	if cfg.OddHoursStart < 0 || cfg.OddHoursEnd > 24 || cfg.OddHoursStart >= cfg.OddHoursEnd {
		return processor.RuleConfig{}, fmt.Errorf("rules.odd_hours must satisfy 0 <= start < end <= 24, got [%d, %d)",
			cfg.OddHoursStart, cfg.OddHoursEnd)
	}

	tz := r.Timezone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return processor.RuleConfig{}, fmt.Errorf("rules.timezone: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func parseAmount(key, raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: invalid amount %q: %w", key, raw, err)
	}
	if amount.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s: amount must not be negative", key)
	}
	return amount, nil
}

func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
