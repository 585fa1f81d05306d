package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
)

const alertColumns = "id, transaction_id, account_id, reasons, status, created_at, version"

type AlertRepo struct {
	db dbtx
}

func NewAlertRepo(db dbtx) *AlertRepo {
	return &AlertRepo{db: db}
}

func (r *AlertRepo) Save(ctx context.Context, alert *domain.FraudAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fraud_alerts (`+alertColumns+`) VALUES (?,?,?,?,?,?,1)`,
		alert.ID, alert.TransactionID, alert.AccountID, alert.Reasons,
		string(alert.Status), formatTime(alert.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: alert %s", repository.ErrDuplicate, alert.ID)
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	alert.Version = 1
	return nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id string) (*domain.FraudAlert, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+alertColumns+" FROM fraud_alerts WHERE id = ?", id)
	alert, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: alert %s", repository.ErrNotFound, id)
	}
	return alert, err
}

func (r *AlertRepo) Update(ctx context.Context, alert *domain.FraudAlert) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE fraud_alerts SET reasons = ?, status = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		alert.Reasons, string(alert.Status), alert.ID, alert.Version,
	)
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update alert: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM fraud_alerts WHERE id = ?", alert.ID).Scan(&exists); err != nil {
			return fmt.Errorf("update alert: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("%w: alert %s", repository.ErrNotFound, alert.ID)
		}
		return fmt.Errorf("%w: alert %s at version %d", repository.ErrVersionConflict, alert.ID, alert.Version)
	}

	alert.Version++
	return nil
}

func (r *AlertRepo) GetByStatus(ctx context.Context, status domain.AlertStatus) ([]*domain.FraudAlert, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM fraud_alerts WHERE status = ? ORDER BY created_at DESC, id DESC",
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []*domain.FraudAlert{}
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func scanAlert(s scanner) (*domain.FraudAlert, error) {
	var alert domain.FraudAlert
	var status, createdAt string

	err := s.Scan(&alert.ID, &alert.TransactionID, &alert.AccountID, &alert.Reasons,
		&status, &createdAt, &alert.Version)
	if err != nil {
		return nil, err
	}

	alert.Status = domain.AlertStatus(status)
	alert.CreatedAt = parseTime(createdAt)
	return &alert, nil
}
