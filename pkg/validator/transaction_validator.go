package validator

import (
	"errors"
	"fmt"
	"fraud_monitor/internal/domain"
	"regexp"
	"strings"
	"time"
)

var (
	ErrMissingEvent     = errors.New("transaction event is required")
	ErrMissingAccount   = errors.New("account_id is required")
	ErrInvalidAmount    = errors.New("amount must be a positive decimal")
	ErrInvalidCurrency  = errors.New("currency must be a three-letter ISO code")
	ErrInvalidCategory  = errors.New("unsupported category")
	ErrInvalidChannel   = errors.New("unsupported channel")
	ErrMissingEventTime = errors.New("event_time is required")
	ErrFutureEventTime  = errors.New("event_time cannot be in the future")
)

const defaultClockSkew = 5 * time.Minute

// ValidationError lists every problem found in one event. It matches
// domain.ErrValidation as well as each of the individual errors above.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("%s: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{domain.ErrValidation}, e.Problems...)
}

type TransactionValidator struct {
	currencyRegex *regexp.Regexp
	maxClockSkew  time.Duration
	now           func() time.Time
}

func NewTransactionValidator() *TransactionValidator {
	return &TransactionValidator{
		currencyRegex: regexp.MustCompile(`^[A-Z]{3}$`),
		maxClockSkew:  defaultClockSkew,
		now:           time.Now,
	}
}

func (v *TransactionValidator) ValidateEvent(ev *domain.TransactionEvent) error {
	if ev == nil {
		return &ValidationError{Problems: []error{ErrMissingEvent}}
	}

	var errs []error

	if strings.TrimSpace(ev.AccountID) == "" {
		errs = append(errs, ErrMissingAccount)
	}

	if !ev.Amount.Valid || !ev.Amount.Decimal.IsPositive() {
		errs = append(errs, ErrInvalidAmount)
	}

	if !v.currencyRegex.MatchString(ev.Currency) {
		errs = append(errs, ErrInvalidCurrency)
	}

	if !ev.Category.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCategory, ev.Category))
	}

	if ev.Channel != "" && !ev.Channel.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidChannel, ev.Channel))
	}

	if ev.EventTime.IsZero() {
		errs = append(errs, ErrMissingEventTime)
	} else if ev.EventTime.After(v.now().Add(v.maxClockSkew)) {
		errs = append(errs, ErrFutureEventTime)
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}

	return nil
}

// IsKnownCurrency reports whether the currency is one the system is
// commonly fed. Unknown but well-formed codes still pass validation.
func IsKnownCurrency(currency string) bool {
	for _, known := range domain.KnownCurrencies {
		if currency == known {
			return true
		}
	}
	return false
}
