package processor

import (
	"context"
	"fmt"
	"fraud_monitor/internal/domain"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReasonAmountThreshold     = "Amount exceeds category threshold"
	ReasonVelocity            = "High transaction velocity in last minute"
	ReasonForeignHighAmount   = "Foreign transaction with high amount"
	ReasonBlacklistedMerchant = "Merchant is blacklisted"
	ReasonOddHours            = "Large transaction at unusual hours"
	ReasonNewDevice           = "High amount from new device"
)

// History is the read-only view of past transactions the velocity and
// new-device rules need.
type History interface {
	TransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error)
	DeviceIDs(ctx context.Context, accountID string) ([]string, error)
}

// RuleConfig holds every tunable of the rule set. Merchant names in
// BlacklistedMerchants are matched upper-cased.
type RuleConfig struct {
	CategoryThresholds   map[domain.Category]decimal.Decimal
	DefaultThreshold     decimal.Decimal
	BlacklistedMerchants map[string]struct{}
	HomeCountry          string
	ForeignHighAmount    decimal.Decimal
	VelocityWindow       time.Duration
	VelocityCount        int
	OddHoursStart        int
	OddHoursEnd          int
	OddHoursHighAmount   decimal.Decimal
	NewDeviceHighAmount  decimal.Decimal
	Location             *time.Location
}

func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		CategoryThresholds: map[domain.Category]decimal.Decimal{
			domain.CategoryPurchase:      decimal.NewFromInt(10000),
			domain.CategoryTransfer:      decimal.NewFromInt(50000),
			domain.CategoryATM:           decimal.NewFromInt(3000),
			domain.CategoryOnline:        decimal.NewFromInt(8000),
			domain.CategoryInternational: decimal.NewFromInt(5000),
			domain.CategoryBillPayment:   decimal.NewFromInt(20000),
		},
		DefaultThreshold: decimal.NewFromInt(10000),
		BlacklistedMerchants: map[string]struct{}{
			"SCAM MART":   {},
			"DODGY DEALS": {},
			"PHISH PAY":   {},
		},
		HomeCountry:         "ZA",
		ForeignHighAmount:   decimal.NewFromInt(3000),
		VelocityWindow:      time.Minute,
		VelocityCount:       5,
		OddHoursStart:       0,
		OddHoursEnd:         5,
		OddHoursHighAmount:  decimal.NewFromInt(2000),
		NewDeviceHighAmount: decimal.NewFromInt(5000),
		Location:            time.UTC,
	}
}

type fraudRule struct {
	Name   string
	Reason string
	Check  func(ctx context.Context, tx *domain.TransactionEvent) (bool, error)
}

// RuleEngine evaluates transactions against a fixed, ordered rule set. It
// holds no mutable state and is safe for concurrent use as long as the
// History it reads from is.
type RuleEngine struct {
	cfg     RuleConfig
	history History
	rules   []fraudRule
	logger  *slog.Logger
}

// NewRuleEngine copies cfg, so later changes by the caller do not affect the
// engine. A nil history disables the velocity and new-device rules.
func NewRuleEngine(cfg RuleConfig, history History, logger *slog.Logger) *RuleEngine {
	if logger == nil {
		logger = slog.Default()
	}

	cfg.CategoryThresholds = maps.Clone(cfg.CategoryThresholds)
	blacklist := make(map[string]struct{}, len(cfg.BlacklistedMerchants))
	for merchant := range cfg.BlacklistedMerchants {
		blacklist[strings.ToUpper(merchant)] = struct{}{}
	}
	cfg.BlacklistedMerchants = blacklist
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	e := &RuleEngine{cfg: cfg, history: history, logger: logger}
	e.rules = []fraudRule{
		{Name: "amount_threshold", Reason: ReasonAmountThreshold, Check: e.checkAmountThreshold},
		{Name: "velocity", Reason: ReasonVelocity, Check: e.checkVelocity},
		{Name: "geo_mismatch", Reason: ReasonForeignHighAmount, Check: e.checkGeoMismatch},
		{Name: "blacklisted_merchant", Reason: ReasonBlacklistedMerchant, Check: e.checkBlacklistedMerchant},
		{Name: "odd_hours", Reason: ReasonOddHours, Check: e.checkOddHours},
		{Name: "new_device", Reason: ReasonNewDevice, Check: e.checkNewDevice},
	}
	return e
}

// Evaluate returns the reasons of every triggered rule in rule order. An empty
// result means the transaction is clean. Missing fields only disable the rules
// that need them; an error is returned only when the history cannot be read.
func (e *RuleEngine) Evaluate(ctx context.Context, tx *domain.TransactionEvent) ([]string, error) {
	reasons := make([]string, 0, len(e.rules))
	if tx == nil {
		return reasons, nil
	}

	for _, rule := range e.rules {
		triggered, err := rule.Check(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		if triggered {
			reasons = append(reasons, rule.Reason)
			e.logger.DebugContext(ctx, "Rule triggered",
				slog.String("rule", rule.Name),
				slog.String("account_id", tx.AccountID))
		}
	}

	return reasons, nil
}

func (e *RuleEngine) Threshold(category domain.Category) decimal.Decimal {
	if threshold, ok := e.cfg.CategoryThresholds[category]; ok {
		return threshold
	}
	return e.cfg.DefaultThreshold
}

func (e *RuleEngine) checkAmountThreshold(_ context.Context, tx *domain.TransactionEvent) (bool, error) {
	if !tx.Amount.Valid {
		return false, nil
	}
	return tx.Amount.Decimal.GreaterThan(e.Threshold(tx.Category)), nil
}

func (e *RuleEngine) checkVelocity(ctx context.Context, tx *domain.TransactionEvent) (bool, error) {
	if e.history == nil || isBlank(tx.AccountID) || tx.EventTime.IsZero() {
		return false, nil
	}

	from := tx.EventTime.Add(-e.cfg.VelocityWindow)
	recent, err := e.history.TransactionsBetween(ctx, tx.AccountID, from, tx.EventTime)
	if err != nil {
		return false, err
	}
	return len(recent) >= e.cfg.VelocityCount, nil
}

func (e *RuleEngine) checkGeoMismatch(_ context.Context, tx *domain.TransactionEvent) (bool, error) {
	if isBlank(tx.CountryCode) || !tx.Amount.Valid {
		return false, nil
	}
	foreign := !strings.EqualFold(tx.CountryCode, e.cfg.HomeCountry)
	return foreign && tx.Amount.Decimal.GreaterThan(e.cfg.ForeignHighAmount), nil
}

func (e *RuleEngine) checkBlacklistedMerchant(_ context.Context, tx *domain.TransactionEvent) (bool, error) {
	if tx.Merchant == "" {
		return false, nil
	}
	_, blacklisted := e.cfg.BlacklistedMerchants[strings.ToUpper(tx.Merchant)]
	return blacklisted, nil
}

func (e *RuleEngine) checkOddHours(_ context.Context, tx *domain.TransactionEvent) (bool, error) {
	if tx.EventTime.IsZero() || !tx.Amount.Valid {
		return false, nil
	}
	hour := tx.EventTime.In(e.cfg.Location).Hour()
	odd := hour >= e.cfg.OddHoursStart && hour < e.cfg.OddHoursEnd
	return odd && tx.Amount.Decimal.GreaterThan(e.cfg.OddHoursHighAmount), nil
}

func (e *RuleEngine) checkNewDevice(ctx context.Context, tx *domain.TransactionEvent) (bool, error) {
	if e.history == nil || isBlank(tx.DeviceID) || isBlank(tx.AccountID) || !tx.Amount.Valid {
		return false, nil
	}
	if !tx.Amount.Decimal.GreaterThan(e.cfg.NewDeviceHighAmount) {
		return false, nil
	}

	known, err := e.history.DeviceIDs(ctx, tx.AccountID)
	if err != nil {
		return false, err
	}
	for _, device := range known {
		if device == tx.DeviceID {
			return false, nil
		}
	}
	return true, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
