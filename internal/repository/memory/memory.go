package memory

import (
	"context"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
	"sync"
)

var (
	_ repository.TransactionRepository = (*TransactionRepository)(nil)
	_ repository.AlertRepository       = (*AlertRepository)(nil)
	_ repository.Store                 = (*Store)(nil)
)

// Store keeps everything in process memory. Units of work are serialized and
// rolled back by undoing their writes when fn fails.
type Store struct {
	txMu         sync.Mutex
	transactions *TransactionRepository
	alerts       *AlertRepository
}

func NewStore() *Store {
	return &Store{
		transactions: NewTransactionRepository(),
		alerts:       NewAlertRepository(),
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return s.transactions }

func (s *Store) Alerts() repository.AlertRepository { return s.alerts }

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	uow := &unitOfWork{store: s}
	if err := fn(ctx, uow); err != nil {
		uow.rollback()
		return err
	}
	return nil
}

func (s *Store) Close() error { return nil }

type unitOfWork struct {
	store *Store
	undo  []func()
}

func (u *unitOfWork) Transactions() repository.TransactionRepository {
	return &uowTransactions{TransactionRepository: u.store.transactions, uow: u}
}

func (u *unitOfWork) Alerts() repository.AlertRepository {
	return &uowAlerts{AlertRepository: u.store.alerts, uow: u}
}

func (u *unitOfWork) RunInTx(ctx context.Context, fn func(ctx context.Context, s repository.Store) error) error {
	return fn(ctx, u)
}

func (u *unitOfWork) Close() error { return nil }

func (u *unitOfWork) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

type uowTransactions struct {
	*TransactionRepository
	uow *unitOfWork
}

func (t *uowTransactions) Save(ctx context.Context, tx *domain.Transaction) error {
	if err := t.TransactionRepository.Save(ctx, tx); err != nil {
		return err
	}
	id := tx.ID
	t.uow.undo = append(t.uow.undo, func() { t.TransactionRepository.delete(id) })
	return nil
}

type uowAlerts struct {
	*AlertRepository
	uow *unitOfWork
}

func (a *uowAlerts) Save(ctx context.Context, alert *domain.FraudAlert) error {
	if err := a.AlertRepository.Save(ctx, alert); err != nil {
		return err
	}
	id := alert.ID
	a.uow.undo = append(a.uow.undo, func() { a.AlertRepository.delete(id) })
	return nil
}

func (a *uowAlerts) Update(ctx context.Context, alert *domain.FraudAlert) error {
	previous, err := a.AlertRepository.GetByID(ctx, alert.ID)
	if err != nil {
		return err
	}
	if err := a.AlertRepository.Update(ctx, alert); err != nil {
		return err
	}
	a.uow.undo = append(a.uow.undo, func() { a.AlertRepository.restore(*previous) })
	return nil
}
