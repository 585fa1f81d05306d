package repository

import (
	"context"
	"errors"
	"fraud_monitor/internal/domain"
	"time"
)

// TransactionRepository stores processed transactions. Records are append-only.
type TransactionRepository interface {
	Save(ctx context.Context, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByAccountID(ctx context.Context, accountID string) ([]*domain.Transaction, error)
	TransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error)
	DeviceIDs(ctx context.Context, accountID string) ([]string, error)
}

// AlertRepository stores fraud alerts. Update is guarded by FraudAlert.Version:
// it fails with ErrVersionConflict when the stored version differs and bumps
// the version on success.
type AlertRepository interface {
	Save(ctx context.Context, alert *domain.FraudAlert) error
	GetByID(ctx context.Context, id string) (*domain.FraudAlert, error)
	Update(ctx context.Context, alert *domain.FraudAlert) error
	GetByStatus(ctx context.Context, status domain.AlertStatus) ([]*domain.FraudAlert, error)
}

// Store groups the repositories of one storage backend. RunInTx runs fn
// against a Store whose writes are committed together or not at all.
type Store interface {
	Transactions() TransactionRepository
	Alerts() AlertRepository
	RunInTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	Close() error
}

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrVersionConflict = errors.New("version conflict")
)
