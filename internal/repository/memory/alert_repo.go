package memory

import (
	"context"
	"fmt"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type AlertRepository struct {
	mu     sync.RWMutex
	alerts map[string]*domain.FraudAlert
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		alerts: make(map[string]*domain.FraudAlert),
	}
}

func (r *AlertRepository) Save(ctx context.Context, alert *domain.FraudAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if _, exists := r.alerts[alert.ID]; exists {
		return fmt.Errorf("%w: alert %s", repository.ErrDuplicate, alert.ID)
	}

	alert.Version = 1
	stored := *alert
	r.alerts[alert.ID] = &stored

	return nil
}

func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.FraudAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	alert, exists := r.alerts[id]
	if !exists {
		return nil, fmt.Errorf("%w: alert %s", repository.ErrNotFound, id)
	}
	found := *alert
	return &found, nil
}

func (r *AlertRepository) Update(ctx context.Context, alert *domain.FraudAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.alerts[alert.ID]
	if !exists {
		return fmt.Errorf("%w: alert %s", repository.ErrNotFound, alert.ID)
	}
	if existing.Version != alert.Version {
		return fmt.Errorf("%w: alert %s has version %d, update based on %d",
			repository.ErrVersionConflict, alert.ID, existing.Version, alert.Version)
	}

	alert.Version = existing.Version + 1
	stored := *alert
	r.alerts[alert.ID] = &stored

	return nil
}

func (r *AlertRepository) GetByStatus(ctx context.Context, status domain.AlertStatus) ([]*domain.FraudAlert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*domain.FraudAlert{}
	for _, alert := range r.alerts {
		if alert.Status == status {
			found := *alert
			result = append(result, &found)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *AlertRepository) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.alerts, id)
}

func (r *AlertRepository) restore(alert domain.FraudAlert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[alert.ID] = &alert
}
