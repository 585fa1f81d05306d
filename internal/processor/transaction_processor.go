package processor

import (
	"context"
	"errors"
	"fmt"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
	"fraud_monitor/pkg/metrics"
	"fraud_monitor/pkg/validator"
	"log/slog"
	"time"
)

// Evaluator produces the ordered fraud reasons for one event.
type Evaluator interface {
	Evaluate(ctx context.Context, tx *domain.TransactionEvent) ([]string, error)
}

// Notifier is told about every flagged transaction once it is committed. It
// must not block the caller.
type Notifier interface {
	NotifyFraud(ctx context.Context, tx *domain.Transaction)
}

type TransactionProcessor struct {
	store     repository.Store
	evaluator Evaluator
	validator *validator.TransactionValidator
	notifier  Notifier
	metrics   *metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

func NewTransactionProcessor(
	store repository.Store,
	evaluator Evaluator,
	notifier Notifier,
	metricsCollector *metrics.MetricsCollector,
	logger *slog.Logger,
) *TransactionProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NewMetricsCollector(logger)
	}

	return &TransactionProcessor{
		store:     store,
		evaluator: evaluator,
		validator: validator.NewTransactionValidator(),
		notifier:  notifier,
		metrics:   metricsCollector,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessTransaction validates and evaluates the event, then persists it
// together with an OPEN alert when any rule fired. Notification happens
// after the commit and never affects the result.
func (p *TransactionProcessor) ProcessTransaction(ctx context.Context, event *domain.TransactionEvent) (*domain.Transaction, error) {
	start := time.Now()

	if err := p.validator.ValidateEvent(event); err != nil {
		p.metrics.RecordRejected()
		return nil, err
	}
	if !validator.IsKnownCurrency(event.Currency) {
		p.logger.InfoContext(ctx, "Transaction in uncommon currency",
			slog.String("account_id", event.AccountID),
			slog.String("currency", event.Currency))
	}

	reasons, err := p.evaluator.Evaluate(ctx, event)
	if err != nil {
		p.metrics.RecordFailure()
		p.logger.ErrorContext(ctx, "Rule evaluation failed",
			slog.String("account_id", event.AccountID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: evaluate rules: %w", domain.ErrDependency, err)
	}

	tx := domain.NewTransaction(*event, reasons)

	var alert *domain.FraudAlert
	err = p.store.RunInTx(ctx, func(ctx context.Context, s repository.Store) error {
		if err := s.Transactions().Save(ctx, tx); err != nil {
			return fmt.Errorf("save transaction: %w", err)
		}
		if !tx.Fraudulent {
			return nil
		}
		alert = domain.NewFraudAlert(tx, p.now())
		if err := s.Alerts().Save(ctx, alert); err != nil {
			return fmt.Errorf("save alert: %w", err)
		}
		return nil
	})
	if err != nil {
		p.metrics.RecordFailure()
		p.logger.ErrorContext(ctx, "Failed to persist transaction",
			slog.String("account_id", event.AccountID),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", domain.ErrDependency, err)
	}

	p.metrics.RecordTransaction(time.Since(start), reasons)

	if alert != nil {
		p.metrics.RecordAlertOpened()
		p.logger.WarnContext(ctx, "Fraud alert opened",
			slog.String("alert_id", alert.ID),
			slog.String("transaction_id", tx.ID),
			slog.String("account_id", tx.AccountID),
			slog.String("reasons", tx.FraudReason))

		if p.notifier != nil {
			notified := *tx
			p.notifier.NotifyFraud(ctx, &notified)
		}
	} else {
		p.logger.InfoContext(ctx, "Transaction processed",
			slog.String("transaction_id", tx.ID),
			slog.String("account_id", tx.AccountID))
	}

	return tx, nil
}

// Evaluate runs the rules without persisting anything.
func (p *TransactionProcessor) Evaluate(ctx context.Context, event *domain.TransactionEvent) ([]string, error) {
	reasons, err := p.evaluator.Evaluate(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("%w: evaluate rules: %w", domain.ErrDependency, err)
	}
	if reasons == nil {
		reasons = []string{}
	}
	return reasons, nil
}

func (p *TransactionProcessor) GetTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	tx, err := p.store.Transactions().GetByID(ctx, transactionID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return tx, nil
}

// ListByAccount returns the account's transactions, newest event first.
func (p *TransactionProcessor) ListByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account id is required", domain.ErrValidation)
	}
	txs, err := p.store.Transactions().GetByAccountID(ctx, accountID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return txs, nil
}

func mapRepositoryError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrDependency, err)
}
