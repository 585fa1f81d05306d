package memory

import (
	"context"
	"errors"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
	"testing"
	"time"
)

func TestTransactionRepository_SaveAndGetByID(t *testing.T) {
	repo := NewTransactionRepository()
	tx := &domain.Transaction{
		ID:               "tx1",
		TransactionEvent: domain.TransactionEvent{AccountID: "acc1", Currency: "ZAR"},
	}

	err := repo.Save(context.Background(), tx)
	if err != nil {
		t.Fatalf("unexpected error on Save: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "tx1")

	if err != nil {
		t.Fatalf("unexpected error on GetByID: %v", err)
	}
	if got.ID != tx.ID || got.AccountID != tx.AccountID {
		t.Errorf("expected transaction %+v, got %+v", tx, got)
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("expected created_at to be set")
	}
}

func TestTransactionRepository_SaveGeneratesID(t *testing.T) {
	repo := NewTransactionRepository()
	tx := &domain.Transaction{TransactionEvent: domain.TransactionEvent{AccountID: "acc1"}}

	if err := repo.Save(context.Background(), tx); err != nil {
		t.Fatalf("unexpected error on Save: %v", err)
	}

	if tx.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestTransactionRepository_SaveDuplicate(t *testing.T) {
	repo := NewTransactionRepository()
	_ = repo.Save(context.Background(), &domain.Transaction{ID: "tx1"})

	err := repo.Save(context.Background(), &domain.Transaction{ID: "tx1"})

	if !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestTransactionRepository_GetByIDMissing(t *testing.T) {
	repo := NewTransactionRepository()

	_, err := repo.GetByID(context.Background(), "nope")

	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionRepository_GetByAccountIDNewestFirst(t *testing.T) {
	repo := NewTransactionRepository()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"tx1", "tx2", "tx3"} {
		_ = repo.Save(context.Background(), &domain.Transaction{
			ID:               id,
			TransactionEvent: domain.TransactionEvent{AccountID: "acc1", EventTime: base.Add(time.Duration(i) * time.Minute)},
		})
	}
	_ = repo.Save(context.Background(), &domain.Transaction{
		ID:               "other",
		TransactionEvent: domain.TransactionEvent{AccountID: "acc2", EventTime: base},
	})

	txs, err := repo.GetByAccountID(context.Background(), "acc1")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 || txs[0].ID != "tx3" || txs[2].ID != "tx1" {
		t.Errorf("expected tx3, tx2, tx1, got %+v", txs)
	}
}

func TestTransactionRepository_GetByAccountIDUnknown(t *testing.T) {
	repo := NewTransactionRepository()

	txs, err := repo.GetByAccountID(context.Background(), "ghost")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txs == nil || len(txs) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", txs)
	}
}

func TestTransactionRepository_TransactionsBetweenInclusive(t *testing.T) {
	repo := NewTransactionRepository()
	end := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	start := end.Add(-time.Minute)
	times := map[string]time.Time{
		"before": start.Add(-time.Second),
		"start":  start,
		"inside": start.Add(30 * time.Second),
		"end":    end,
		"after":  end.Add(time.Second),
	}
	for id, at := range times {
		_ = repo.Save(context.Background(), &domain.Transaction{
			ID:               id,
			TransactionEvent: domain.TransactionEvent{AccountID: "acc1", EventTime: at},
		})
	}

	txs, err := repo.TransactionsBetween(context.Background(), "acc1", start, end)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions in range, got %d", len(txs))
	}
	if txs[0].ID != "start" || txs[1].ID != "inside" || txs[2].ID != "end" {
		t.Errorf("unexpected order: %s %s %s", txs[0].ID, txs[1].ID, txs[2].ID)
	}
}

func TestTransactionRepository_DeviceIDsDistinct(t *testing.T) {
	repo := NewTransactionRepository()
	for i, device := range []string{"d1", "d2", "d1", ""} {
		_ = repo.Save(context.Background(), &domain.Transaction{
			ID:               string(rune('a' + i)),
			TransactionEvent: domain.TransactionEvent{AccountID: "acc1", DeviceID: device},
		})
	}

	devices, err := repo.DeviceIDs(context.Background(), "acc1")

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(devices) != 2 || devices[0] != "d1" || devices[1] != "d2" {
		t.Errorf("expected [d1 d2], got %v", devices)
	}
}

func TestAlertRepository_SaveSetsVersion(t *testing.T) {
	repo := NewAlertRepository()
	alert := &domain.FraudAlert{ID: "al1", Status: domain.AlertOpen}

	if err := repo.Save(context.Background(), alert); err != nil {
		t.Fatalf("unexpected error on Save: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), "al1")

	if got.Version != 1 {
		t.Errorf("expected version 1, got %d", got.Version)
	}
}

func TestAlertRepository_UpdateBumpsVersion(t *testing.T) {
	repo := NewAlertRepository()
	_ = repo.Save(context.Background(), &domain.FraudAlert{ID: "al1", Status: domain.AlertOpen})

	alert, _ := repo.GetByID(context.Background(), "al1")
	alert.Status = domain.AlertClosed
	err := repo.Update(context.Background(), alert)

	if err != nil {
		t.Fatalf("unexpected error on Update: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), "al1")
	if got.Version != 2 || got.Status != domain.AlertClosed {
		t.Errorf("expected closed alert at version 2, got %+v", got)
	}
}

func TestAlertRepository_UpdateStaleVersion(t *testing.T) {
	repo := NewAlertRepository()
	_ = repo.Save(context.Background(), &domain.FraudAlert{ID: "al1", Status: domain.AlertOpen})
	first, _ := repo.GetByID(context.Background(), "al1")
	second, _ := repo.GetByID(context.Background(), "al1")

	first.Status = domain.AlertClosed
	if err := repo.Update(context.Background(), first); err != nil {
		t.Fatalf("unexpected error on first Update: %v", err)
	}
	second.Status = domain.AlertClosed
	err := repo.Update(context.Background(), second)

	if !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
}

func TestAlertRepository_GetByStatusNewestFirst(t *testing.T) {
	repo := NewAlertRepository()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = repo.Save(context.Background(), &domain.FraudAlert{ID: "old", Status: domain.AlertOpen, CreatedAt: base})
	_ = repo.Save(context.Background(), &domain.FraudAlert{ID: "new", Status: domain.AlertOpen, CreatedAt: base.Add(time.Hour)})
	_ = repo.Save(context.Background(), &domain.FraudAlert{ID: "closed", Status: domain.AlertClosed, CreatedAt: base})

	open, err := repo.GetByStatus(context.Background(), domain.AlertOpen)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(open) != 2 || open[0].ID != "new" || open[1].ID != "old" {
		t.Errorf("expected [new old], got %+v", open)
	}
	unknown, _ := repo.GetByStatus(context.Background(), "PENDING")
	if len(unknown) != 0 {
		t.Errorf("expected no alerts for unknown status, got %d", len(unknown))
	}
}

func TestStore_RunInTxRollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.RunInTx(ctx, func(ctx context.Context, s repository.Store) error {
		if err := s.Transactions().Save(ctx, &domain.Transaction{ID: "tx1"}); err != nil {
			return err
		}
		if err := s.Alerts().Save(ctx, &domain.FraudAlert{ID: "al1", TransactionID: "tx1"}); err != nil {
			return err
		}
		return boom
	})

	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.Transactions().GetByID(ctx, "tx1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected transaction rolled back, got %v", err)
	}
	if _, err := store.Alerts().GetByID(ctx, "al1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected alert rolled back, got %v", err)
	}
}

func TestStore_RunInTxRestoresUpdatedAlert(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	_ = store.Alerts().Save(ctx, &domain.FraudAlert{ID: "al1", Status: domain.AlertOpen})

	_ = store.RunInTx(ctx, func(ctx context.Context, s repository.Store) error {
		alert, _ := s.Alerts().GetByID(ctx, "al1")
		alert.Status = domain.AlertClosed
		if err := s.Alerts().Update(ctx, alert); err != nil {
			return err
		}
		return errors.New("abort")
	})

	got, _ := store.Alerts().GetByID(ctx, "al1")
	if got.Status != domain.AlertOpen || got.Version != 1 {
		t.Errorf("expected alert restored to OPEN v1, got %+v", got)
	}
}

func TestStore_RunInTxCommits(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	err := store.RunInTx(ctx, func(ctx context.Context, s repository.Store) error {
		return s.Transactions().Save(ctx, &domain.Transaction{ID: "tx1"})
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Transactions().GetByID(ctx, "tx1"); err != nil {
		t.Errorf("expected committed transaction, got %v", err)
	}
}
