package metrics

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

type MetricsCollector struct {
	registry              *prometheus.Registry
	transactionsProcessed prometheus.Counter
	transactionsFlagged   prometheus.Counter
	transactionsFailed    prometheus.Counter
	transactionsRejected  prometheus.Counter
	fraudReasons          *prometheus.CounterVec
	transactionDuration   prometheus.Histogram
	alertsOpened          prometheus.Counter
	alertsClosed          prometheus.Counter
	alertCloseConflicts   prometheus.Counter
	notifications         *prometheus.CounterVec
	notificationsDropped  prometheus.Counter
	logger                *slog.Logger
}

func NewMetricsCollector(logger *slog.Logger) *MetricsCollector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		registry: registry,
		transactionsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "transactions_processed_total",
			Help: "Total number of persisted transactions",
		}),
		transactionsFlagged: factory.NewCounter(prometheus.CounterOpts{
			Name: "transactions_flagged_total",
			Help: "Total number of transactions flagged as fraudulent",
		}),
		transactionsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "transactions_failed_total",
			Help: "Total number of transactions that failed on a dependency",
		}),
		transactionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "transactions_rejected_total",
			Help: "Total number of transactions rejected by validation",
		}),
		fraudReasons: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fraud_rule_triggers_total",
			Help: "Number of times each fraud rule triggered",
		}, []string{"reason"}),
		transactionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "transaction_processing_duration_seconds",
			Help:    "Time taken to process a transaction",
			Buckets: prometheus.DefBuckets,
		}),
		alertsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraud_alerts_opened_total",
			Help: "Total number of fraud alerts opened",
		}),
		alertsClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraud_alerts_closed_total",
			Help: "Total number of fraud alerts closed",
		}),
		alertCloseConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "fraud_alert_close_conflicts_total",
			Help: "Alert closes rejected by a concurrent modification",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification deliveries by channel and outcome",
		}, []string{"channel", "outcome"}),
		notificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped because the queue was full or closed",
		}),
		logger: logger,
	}
}

// RecordTransaction records a persisted transaction and the reasons it was
// flagged for, if any.
func (m *MetricsCollector) RecordTransaction(duration time.Duration, reasons []string) {
	m.transactionsProcessed.Inc()
	m.transactionDuration.Observe(duration.Seconds())
	if len(reasons) == 0 {
		return
	}
	m.transactionsFlagged.Inc()
	for _, reason := range reasons {
		m.fraudReasons.WithLabelValues(reason).Inc()
	}
}

func (m *MetricsCollector) RecordFailure() {
	m.transactionsFailed.Inc()
}

func (m *MetricsCollector) RecordRejected() {
	m.transactionsRejected.Inc()
}

func (m *MetricsCollector) RecordAlertOpened() {
	m.alertsOpened.Inc()
}

func (m *MetricsCollector) RecordAlertClosed() {
	m.alertsClosed.Inc()
}

func (m *MetricsCollector) RecordAlertConflict() {
	m.alertCloseConflicts.Inc()
}

func (m *MetricsCollector) RecordNotification(channel, outcome string) {
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

func (m *MetricsCollector) RecordNotificationDropped() {
	m.notificationsDropped.Inc()
}

func (m *MetricsCollector) GetHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *MetricsCollector) StartMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.GetHandler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		m.logger.Info("Starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

func (m *MetricsCollector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	m.logger.Info("Metrics server shutdown complete")
	return nil
}
