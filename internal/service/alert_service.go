package service

import (
	"context"
	"errors"
	"fmt"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/repository"
	"fraud_monitor/pkg/metrics"
	"log/slog"
)

// AlertService drives the OPEN -> CLOSED lifecycle of fraud alerts.
type AlertService struct {
	alerts  repository.AlertRepository
	metrics *metrics.MetricsCollector
	logger  *slog.Logger
}

func NewAlertService(alerts repository.AlertRepository, metricsCollector *metrics.MetricsCollector, logger *slog.Logger) *AlertService {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NewMetricsCollector(logger)
	}
	return &AlertService{
		alerts:  alerts,
		metrics: metricsCollector,
		logger:  logger,
	}
}

// CloseAlert closes an OPEN alert. Closing an already closed alert returns
// it unchanged without writing. A concurrent modification surfaces as
// domain.ErrConflict.
func (s *AlertService) CloseAlert(ctx context.Context, id string) (*domain.FraudAlert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}

	if !alert.Close() {
		return alert, nil
	}

	if err := s.alerts.Update(ctx, alert); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			s.metrics.RecordAlertConflict()
			s.logger.WarnContext(ctx, "Alert close lost a concurrent update",
				slog.String("alert_id", id))
			return nil, fmt.Errorf("%w: alert %s was modified by another request, refresh and retry", domain.ErrConflict, id)
		}
		return nil, s.mapError(err)
	}

	s.metrics.RecordAlertClosed()
	s.logger.InfoContext(ctx, "Fraud alert closed",
		slog.String("alert_id", alert.ID),
		slog.String("transaction_id", alert.TransactionID))

	return alert, nil
}

// ListAlerts returns alerts whose status matches exactly, newest first.
func (s *AlertService) ListAlerts(ctx context.Context, status domain.AlertStatus) ([]*domain.FraudAlert, error) {
	alerts, err := s.alerts.GetByStatus(ctx, status)
	if err != nil {
		return nil, s.mapError(err)
	}
	return alerts, nil
}

func (s *AlertService) GetAlert(ctx context.Context, id string) (*domain.FraudAlert, error) {
	alert, err := s.alerts.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}
	return alert, nil
}

func (s *AlertService) mapError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case errors.Is(err, repository.ErrVersionConflict):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrDependency, err)
	}
}
