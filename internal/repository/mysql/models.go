package mysql

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionModel maps to the transactions table.
type TransactionModel struct {
	ID          string              `gorm:"primaryKey;type:varchar(36)"`
	AccountID   string              `gorm:"type:varchar(64);not null;index:idx_tx_account_time,priority:1;index:idx_tx_account_device,priority:1"`
	Amount      decimal.NullDecimal `gorm:"type:decimal(19,4)"`
	Currency    string              `gorm:"type:varchar(3);not null"`
	Category    string              `gorm:"type:varchar(32);not null"`
	Channel     string              `gorm:"type:varchar(16);not null"`
	Merchant    string              `gorm:"type:varchar(255);not null"`
	CountryCode string              `gorm:"type:varchar(8);not null"`
	DeviceID    string              `gorm:"type:varchar(128);not null;index:idx_tx_account_device,priority:2"`
	UserEmail   string              `gorm:"type:varchar(255);not null"`
	UserPhone   string              `gorm:"type:varchar(32);not null"`
	EventTime   time.Time           `gorm:"type:datetime(6);not null;index:idx_tx_account_time,priority:2"`
	Fraudulent  bool                `gorm:"not null"`
	FraudReason string              `gorm:"type:text;not null"`
	CreatedAt   time.Time           `gorm:"type:datetime(6);not null"`
}

func (TransactionModel) TableName() string {
	return "transactions"
}

// AlertModel maps to the fraud_alerts table. Version backs optimistic updates.
type AlertModel struct {
	ID            string           `gorm:"primaryKey;type:varchar(36)"`
	TransactionID string           `gorm:"type:varchar(36);not null;index"`
	Transaction   TransactionModel `gorm:"foreignKey:TransactionID;constraint:OnDelete:RESTRICT"`
	AccountID     string           `gorm:"type:varchar(64);not null"`
	Reasons       string           `gorm:"type:text;not null"`
	Status        string           `gorm:"type:varchar(16);not null;index:idx_alert_status_created,priority:1"`
	CreatedAt     time.Time        `gorm:"type:datetime(6);not null;index:idx_alert_status_created,priority:2"`
	Version       int64            `gorm:"not null;default:1"`
}

func (AlertModel) TableName() string {
	return "fraud_alerts"
}
