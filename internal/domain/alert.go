package domain

import (
	"strings"
	"time"
)

type AlertStatus string

const (
	AlertOpen   AlertStatus = "OPEN"
	AlertClosed AlertStatus = "CLOSED"
)

type FraudAlert struct {
	ID            string      `json:"id"`
	TransactionID string      `json:"transaction_id"`
	AccountID     string      `json:"account_id"`
	Reasons       string      `json:"reasons"`
	Status        AlertStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	Version       int64       `json:"version"`
}

// NewFraudAlert opens an alert for an already persisted, flagged transaction.
func NewFraudAlert(tx *Transaction, now time.Time) *FraudAlert {
	return &FraudAlert{
		ID:            generateID(),
		TransactionID: tx.ID,
		AccountID:     tx.AccountID,
		Reasons:       tx.FraudReason,
		Status:        AlertOpen,
		CreatedAt:     now,
	}
}

func (a *FraudAlert) IsClosed() bool {
	return strings.EqualFold(string(a.Status), string(AlertClosed))
}

// Close moves the alert to CLOSED. It reports false when there was nothing to do.
func (a *FraudAlert) Close() bool {
	if a.IsClosed() {
		return false
	}
	a.Status = AlertClosed
	return true
}
