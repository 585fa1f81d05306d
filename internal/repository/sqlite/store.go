package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"fraud_monitor/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	db           *sql.DB
	transactions *TransactionRepo
	alerts       *AlertRepo
}

// Open initializes the schema at dsn and returns a ready Store.
func Open(dsn string) (*Store, error) {
	db, err := InitDB(dsn)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:           db,
		transactions: NewTransactionRepo(db),
		alerts:       NewAlertRepo(db),
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }

func (s *Store) Alerts() repository.AlertRepository { return s.alerts }

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &txStore{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Transactions() repository.TransactionRepository { return NewTransactionRepo(t.tx) }

func (t *txStore) Alerts() repository.AlertRepository { return NewAlertRepo(t.tx) }

func (t *txStore) RunInTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	return fn(ctx, t)
}

func (t *txStore) Close() error { return nil }
