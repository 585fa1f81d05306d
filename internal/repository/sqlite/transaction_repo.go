package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
)

const transactionColumns = `id, account_id, amount, currency, category, channel, merchant,
	country_code, device_id, user_email, user_phone, event_time, fraudulent, fraud_reason, created_at`

type TransactionRepo struct {
	db dbtx
}

func NewTransactionRepo(db dbtx) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Save(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		tx.ID, tx.AccountID, tx.Amount, tx.Currency, string(tx.Category), string(tx.Channel),
		tx.Merchant, tx.CountryCode, tx.DeviceID, tx.UserEmail, tx.UserPhone,
		formatTime(tx.EventTime), tx.Fraudulent, tx.FraudReason, formatTime(tx.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, id)
	}
	return tx, err
}

func (r *TransactionRepo) GetByAccountID(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	return r.query(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE account_id = ? ORDER BY event_time DESC, rowid DESC",
		accountID,
	)
}

func (r *TransactionRepo) TransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	return r.query(ctx,
		"SELECT "+transactionColumns+` FROM transactions
		WHERE account_id = ? AND event_time >= ? AND event_time <= ?
		ORDER BY event_time ASC, rowid ASC`,
		accountID, formatTime(from), formatTime(to),
	)
}

func (r *TransactionRepo) DeviceIDs(ctx context.Context, accountID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT device_id FROM transactions
		WHERE account_id = ? AND device_id <> ''
		GROUP BY device_id ORDER BY MIN(rowid)`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("query device ids: %w", err)
	}
	defer rows.Close()

	devices := []string{}
	for rows.Next() {
		var device string
		if err := rows.Scan(&device); err != nil {
			return nil, err
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

func (r *TransactionRepo) query(ctx context.Context, q string, args ...any) ([]*domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []*domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var tx domain.Transaction
	var category, channel, eventTime, createdAt string

	err := s.Scan(
		&tx.ID, &tx.AccountID, &tx.Amount, &tx.Currency, &category, &channel, &tx.Merchant,
		&tx.CountryCode, &tx.DeviceID, &tx.UserEmail, &tx.UserPhone, &eventTime,
		&tx.Fraudulent, &tx.FraudReason, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Category = domain.Category(category)
	tx.Channel = domain.Channel(channel)
	tx.EventTime = parseTime(eventTime)
	tx.CreatedAt = parseTime(createdAt)
	return &tx, nil
}
