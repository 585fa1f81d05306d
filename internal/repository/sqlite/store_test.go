package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTransaction(id, account, device string, at time.Time) *domain.Transaction {
	return &domain.Transaction{
		ID: id,
		TransactionEvent: domain.TransactionEvent{
			AccountID:   account,
			Amount:      decimal.NewNullDecimal(decimal.RequireFromString("1234.56")),
			Currency:    "ZAR",
			Category:    domain.CategoryPurchase,
			Channel:     domain.ChannelWeb,
			Merchant:    "OK MART",
			CountryCode: "ZA",
			DeviceID:    device,
			EventTime:   at,
		},
		FraudReason: "",
	}
}

func TestTransactionRepo_RoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 30, 15, 123, time.UTC)
	tx := sampleTransaction("tx1", "acc1", "d1", at)
	tx.Fraudulent = true
	tx.FraudReason = "Merchant is blacklisted"

	if err := store.Transactions().Save(ctx, tx); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Transactions().GetByID(ctx, "tx1")

	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Amount.Valid || !got.Amount.Decimal.Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("amount not preserved: %+v", got.Amount)
	}
	if !got.EventTime.Equal(at) {
		t.Errorf("event time not preserved: %v != %v", got.EventTime, at)
	}
	if !got.Fraudulent || got.FraudReason != "Merchant is blacklisted" {
		t.Errorf("fraud fields not preserved: %+v", got)
	}
	if got.Category != domain.CategoryPurchase || got.Channel != domain.ChannelWeb {
		t.Errorf("enums not preserved: %+v", got)
	}
}

func TestTransactionRepo_NullAmount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	tx := sampleTransaction("tx1", "acc1", "", time.Now())
	tx.Amount = decimal.NullDecimal{}

	if err := store.Transactions().Save(ctx, tx); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := store.Transactions().GetByID(ctx, "tx1")

	if got.Amount.Valid {
		t.Errorf("expected absent amount, got %v", got.Amount.Decimal)
	}
}

func TestTransactionRepo_Duplicate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.Transactions().Save(ctx, sampleTransaction("tx1", "acc1", "", time.Now()))

	err := store.Transactions().Save(ctx, sampleTransaction("tx1", "acc1", "", time.Now()))

	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestTransactionRepo_GetByIDMissing(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Transactions().GetByID(context.Background(), "missing")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionRepo_HistoryQueries(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	end := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = store.Transactions().Save(ctx, sampleTransaction("old", "acc1", "d1", end.Add(-2*time.Minute)))
	_ = store.Transactions().Save(ctx, sampleTransaction("edge", "acc1", "d2", end.Add(-time.Minute)))
	_ = store.Transactions().Save(ctx, sampleTransaction("now", "acc1", "d1", end))
	_ = store.Transactions().Save(ctx, sampleTransaction("other", "acc2", "d9", end))

	window, err := store.Transactions().TransactionsBetween(ctx, "acc1", end.Add(-time.Minute), end)
	if err != nil {
		t.Fatalf("between: %v", err)
	}
	if len(window) != 2 || window[0].ID != "edge" || window[1].ID != "now" {
		t.Errorf("expected [edge now], got %d items", len(window))
	}

	devices, err := store.Transactions().DeviceIDs(ctx, "acc1")
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if len(devices) != 2 || devices[0] != "d1" || devices[1] != "d2" {
		t.Errorf("expected [d1 d2], got %v", devices)
	}

	all, err := store.Transactions().GetByAccountID(ctx, "acc1")
	if err != nil {
		t.Fatalf("by account: %v", err)
	}
	if len(all) != 3 || all[0].ID != "now" || all[2].ID != "old" {
		t.Errorf("expected newest first, got %d items", len(all))
	}
}

func TestAlertRepo_OptimisticUpdate(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.Transactions().Save(ctx, sampleTransaction("tx1", "acc1", "", time.Now()))
	alert := &domain.FraudAlert{ID: "al1", TransactionID: "tx1", AccountID: "acc1",
		Reasons: "Merchant is blacklisted", Status: domain.AlertOpen, CreatedAt: time.Now()}
	if err := store.Alerts().Save(ctx, alert); err != nil {
		t.Fatalf("save alert: %v", err)
	}

	first, _ := store.Alerts().GetByID(ctx, "al1")
	stale, _ := store.Alerts().GetByID(ctx, "al1")
	first.Status = domain.AlertClosed
	if err := store.Alerts().Update(ctx, first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("expected version 2 after update, got %d", first.Version)
	}

	stale.Status = domain.AlertClosed
	err := store.Alerts().Update(ctx, stale)
	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}

	err = store.Alerts().Update(ctx, &domain.FraudAlert{ID: "ghost", Version: 1})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertRepo_ForeignKey(t *testing.T) {
	store := openTestStore(t)

	err := store.Alerts().Save(context.Background(), &domain.FraudAlert{
		ID: "al1", TransactionID: "missing", Status: domain.AlertOpen, CreatedAt: time.Now(),
	})

	if err == nil {
		t.Fatal("expected foreign key violation for unknown transaction")
	}
}

func TestAlertRepo_GetByStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = store.Transactions().Save(ctx, sampleTransaction("tx1", "acc1", "", base))
	_ = store.Alerts().Save(ctx, &domain.FraudAlert{ID: "a", TransactionID: "tx1", Status: domain.AlertOpen, CreatedAt: base})
	_ = store.Alerts().Save(ctx, &domain.FraudAlert{ID: "b", TransactionID: "tx1", Status: domain.AlertOpen, CreatedAt: base.Add(time.Second)})
	_ = store.Alerts().Save(ctx, &domain.FraudAlert{ID: "c", TransactionID: "tx1", Status: domain.AlertClosed, CreatedAt: base})

	open, err := store.Alerts().GetByStatus(ctx, domain.AlertOpen)

	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if len(open) != 2 || open[0].ID != "b" || open[1].ID != "a" {
		t.Errorf("expected [b a], got %d alerts", len(open))
	}
}

func TestStore_RunInTxRollback(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.RunInTx(ctx, func(ctx context.Context, s repository.Store) error {
		if err := s.Transactions().Save(ctx, sampleTransaction("tx1", "acc1", "", time.Now())); err != nil {
			return err
		}
		return s.Alerts().Save(ctx, &domain.FraudAlert{ID: "al1", TransactionID: "tx1", Status: domain.AlertOpen})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	boom := errors.New("boom")
	err = store.RunInTx(ctx, func(ctx context.Context, s repository.Store) error {
		if err := s.Transactions().Save(ctx, sampleTransaction("tx2", "acc1", "", time.Now())); err != nil {
			return err
		}
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Transactions().GetByID(ctx, "tx2"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected tx2 rolled back, got %v", err)
	}
	if _, err := store.Alerts().GetByID(ctx, "al1"); err != nil {
		t.Errorf("expected committed alert, got %v", err)
	}
}
