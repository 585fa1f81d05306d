package mysql

import "fraud_monitor/internal/domain"

func toTransactionModel(tx *domain.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:          tx.ID,
		AccountID:   tx.AccountID,
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Category:    string(tx.Category),
		Channel:     string(tx.Channel),
		Merchant:    tx.Merchant,
		CountryCode: tx.CountryCode,
		DeviceID:    tx.DeviceID,
		UserEmail:   tx.UserEmail,
		UserPhone:   tx.UserPhone,
		EventTime:   tx.EventTime.UTC(),
		Fraudulent:  tx.Fraudulent,
		FraudReason: tx.FraudReason,
		CreatedAt:   tx.CreatedAt.UTC(),
	}
}

func toDomainTransaction(m *TransactionModel) *domain.Transaction {
	return &domain.Transaction{
		ID: m.ID,
		TransactionEvent: domain.TransactionEvent{
			AccountID:   m.AccountID,
			Amount:      m.Amount,
			Currency:    m.Currency,
			Category:    domain.Category(m.Category),
			Channel:     domain.Channel(m.Channel),
			Merchant:    m.Merchant,
			CountryCode: m.CountryCode,
			DeviceID:    m.DeviceID,
			UserEmail:   m.UserEmail,
			UserPhone:   m.UserPhone,
			EventTime:   m.EventTime.UTC(),
		},
		Fraudulent:  m.Fraudulent,
		FraudReason: m.FraudReason,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

func toAlertModel(a *domain.FraudAlert) *AlertModel {
	return &AlertModel{
		ID:            a.ID,
		TransactionID: a.TransactionID,
		AccountID:     a.AccountID,
		Reasons:       a.Reasons,
		Status:        string(a.Status),
		CreatedAt:     a.CreatedAt.UTC(),
		Version:       a.Version,
	}
}

func toDomainAlert(m *AlertModel) *domain.FraudAlert {
	return &domain.FraudAlert{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		AccountID:     m.AccountID,
		Reasons:       m.Reasons,
		Status:        domain.AlertStatus(m.Status),
		CreatedAt:     m.CreatedAt.UTC(),
		Version:       m.Version,
	}
}
