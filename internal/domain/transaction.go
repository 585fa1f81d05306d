package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Category string
type Channel string

const (
	CategoryPurchase      Category = "PURCHASE"
	CategoryTransfer      Category = "TRANSFER"
	CategoryATM           Category = "ATM"
	CategoryOnline        Category = "ONLINE"
	CategoryInternational Category = "INTERNATIONAL"
	CategoryBillPayment   Category = "BILL_PAYMENT"

	ChannelWeb    Channel = "WEB"
	ChannelATM    Channel = "ATM"
	ChannelMobile Channel = "MOBILE"
	ChannelPOS    Channel = "POS"
)

// ReasonSeparator joins rule reasons into the persisted fraud reason text.
const ReasonSeparator = ", "

var Categories = []Category{
	CategoryPurchase,
	CategoryTransfer,
	CategoryATM,
	CategoryOnline,
	CategoryInternational,
	CategoryBillPayment,
}

var Channels = []Channel{ChannelWeb, ChannelATM, ChannelMobile, ChannelPOS}

var KnownCurrencies = []string{"ZAR", "USD", "EUR", "GBP"}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Channel) Valid() bool {
	for _, known := range Channels {
		if c == known {
			return true
		}
	}
	return false
}

// TransactionEvent is the incoming snapshot the fraud rules look at. Any field
// may be empty; rules that need a missing field simply do not fire.
type TransactionEvent struct {
	AccountID   string              `json:"account_id"`
	Amount      decimal.NullDecimal `json:"amount"`
	Currency    string              `json:"currency"`
	Category    Category            `json:"category"`
	Channel     Channel             `json:"channel,omitempty"`
	Merchant    string              `json:"merchant,omitempty"`
	CountryCode string              `json:"country_code,omitempty"`
	DeviceID    string              `json:"device_id,omitempty"`
	UserEmail   string              `json:"user_email,omitempty"`
	UserPhone   string              `json:"user_phone,omitempty"`
	EventTime   time.Time           `json:"event_time"`
}

// Transaction is a persisted event. It is written once and never updated.
type Transaction struct {
	ID string `json:"id"`
	TransactionEvent
	Fraudulent  bool      `json:"fraudulent"`
	FraudReason string    `json:"fraud_reason"`
	CreatedAt   time.Time `json:"created_at"`
}

func NewTransaction(event TransactionEvent, reasons []string) *Transaction {
	return &Transaction{
		ID:               generateID(),
		TransactionEvent: event,
		Fraudulent:       len(reasons) > 0,
		FraudReason:      strings.Join(reasons, ReasonSeparator),
		CreatedAt:        time.Now().UTC(),
	}
}

// Reasons splits the persisted reason text back into the rule reasons.
func (tx *Transaction) Reasons() []string {
	if tx.FraudReason == "" {
		return []string{}
	}
	return strings.Split(tx.FraudReason, ReasonSeparator)
}

func generateID() string {
	return uuid.NewString()
}
