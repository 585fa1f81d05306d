package memory

import (
	"context"
	"fmt"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type TransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	index        map[string][]string
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		transactions: make(map[string]*domain.Transaction),
		index:        make(map[string][]string),
	}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if _, exists := r.transactions[tx.ID]; exists {
		return fmt.Errorf("%w: transaction %s", repository.ErrDuplicate, tx.ID)
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	stored := *tx
	r.transactions[tx.ID] = &stored

	if tx.AccountID != "" {
		r.index[tx.AccountID] = append(r.index[tx.AccountID], tx.ID)
	}

	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, exists := r.transactions[id]
	if !exists {
		return nil, fmt.Errorf("%w: transaction %s", repository.ErrNotFound, id)
	}
	found := *tx
	return &found, nil
}

func (r *TransactionRepository) GetByAccountID(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.collect(accountID, func(*domain.Transaction) bool { return true })

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EventTime.After(result[j].EventTime)
	})

	return result, nil
}

func (r *TransactionRepository) TransactionsBetween(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := r.collect(accountID, func(tx *domain.Transaction) bool {
		return !tx.EventTime.Before(from) && !tx.EventTime.After(to)
	})

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].EventTime.Before(result[j].EventTime)
	})

	return result, nil
}

func (r *TransactionRepository) DeviceIDs(ctx context.Context, accountID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	devices := []string{}
	for _, id := range r.index[accountID] {
		deviceID := r.transactions[id].DeviceID
		if deviceID == "" {
			continue
		}
		if _, ok := seen[deviceID]; ok {
			continue
		}
		seen[deviceID] = struct{}{}
		devices = append(devices, deviceID)
	}

	return devices, nil
}

// delete backs out a save made inside a rolled back unit of work.
func (r *TransactionRepository) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, exists := r.transactions[id]
	if !exists {
		return
	}
	delete(r.transactions, id)

	ids := r.index[tx.AccountID]
	for i, candidate := range ids {
		if candidate == id {
			r.index[tx.AccountID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
}

func (r *TransactionRepository) collect(accountID string, keep func(*domain.Transaction) bool) []*domain.Transaction {
	result := []*domain.Transaction{}
	for _, id := range r.index[accountID] {
		tx := r.transactions[id]
		if keep(tx) {
			found := *tx
			result = append(result, &found)
		}
	}
	return result
}
