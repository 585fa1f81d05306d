package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
)

// GormTransactionRepository is the GORM implementation of repository.TransactionRepository.
type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Create(toTransactionModel(tx)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID)
	}
	return err
}

func (r *GormTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var model TransactionModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, id)
		}
		return nil, err
	}
	return toDomainTransaction(&model), nil
}

func (r *GormTransactionRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	var models []*TransactionModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("event_time DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainTransactions(models), nil
}

func (r *GormTransactionRepository) TransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	var models []*TransactionModel
	err := r.db.WithContext(ctx).
		Where("account_id = ? AND event_time BETWEEN ? AND ?", accountID, from.UTC(), to.UTC()).
		Order("event_time ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return toDomainTransactions(models), nil
}

func (r *GormTransactionRepository) DeviceIDs(ctx context.Context, accountID string) ([]string, error) {
	devices := []string{}
	err := r.db.WithContext(ctx).
		Model(&TransactionModel{}).
		Where("account_id = ? AND device_id <> ''", accountID).
		Distinct("device_id").
		Pluck("device_id", &devices).Error
	return devices, err
}

func toDomainTransactions(models []*TransactionModel) []*domain.Transaction {
	txs := make([]*domain.Transaction, len(models))
	for i, m := range models {
		txs[i] = toDomainTransaction(m)
	}
	return txs
}

// GormAlertRepository is the GORM implementation of repository.AlertRepository.
type GormAlertRepository struct {
	db *gorm.DB
}

func NewGormAlertRepository(db *gorm.DB) *GormAlertRepository {
	return &GormAlertRepository{db: db}
}

func (r *GormAlertRepository) Save(ctx context.Context, alert *domain.FraudAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	alert.Version = 1

	err := r.db.WithContext(ctx).Omit("Transaction").Create(toAlertModel(alert)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: alert %s", repository.ErrDuplicate, alert.ID)
	}
	return err
}

func (r *GormAlertRepository) GetByID(ctx context.Context, id string) (*domain.FraudAlert, error) {
	var model AlertModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: alert %s", repository.ErrNotFound, id)
		}
		return nil, err
	}
	return toDomainAlert(&model), nil
}

// Update writes the mutable alert fields only when the stored version still
// matches alert.Version.
func (r *GormAlertRepository) Update(ctx context.Context, alert *domain.FraudAlert) error {
	updateData := map[string]interface{}{
		"status":  string(alert.Status),
		"reasons": alert.Reasons,
		"version": gorm.Expr("version + 1"),
	}
	res := r.db.WithContext(ctx).
		Model(&AlertModel{}).
		Where("id = ? AND version = ?", alert.ID, alert.Version).
		Updates(updateData)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&AlertModel{}).Where("id = ?", alert.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("%w: alert %s", repository.ErrNotFound, alert.ID)
		}
		return fmt.Errorf("%w: alert %s at version %d", repository.ErrVersionConflict, alert.ID, alert.Version)
	}

	alert.Version++
	return nil
}

func (r *GormAlertRepository) GetByStatus(ctx context.Context, status domain.AlertStatus) ([]*domain.FraudAlert, error) {
	var models []*AlertModel
	err := r.db.WithContext(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC, id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	alerts := make([]*domain.FraudAlert, len(models))
	for i, m := range models {
		alerts[i] = toDomainAlert(m)
	}
	return alerts, nil
}
