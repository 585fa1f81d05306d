package app

import (
	"context"
	"errors"
	"fmt"
	"fraud_monitor/internal/api"
	"fraud_monitor/internal/config"
	"fraud_monitor/internal/notify"
	"fraud_monitor/internal/processor"
	"fraud_monitor/internal/repository"
	"fraud_monitor/internal/repository/memory"
	"fraud_monitor/internal/repository/mysql"
	"fraud_monitor/internal/repository/sqlite"
	"fraud_monitor/internal/service"
	"fraud_monitor/pkg/crypto"
	"fraud_monitor/pkg/metrics"
	"io"
	"log/slog"
	"net/http"
)

// App holds the fully wired components of one fraud monitor process.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Store         repository.Store
	Metrics       *metrics.MetricsCollector
	Engine        *processor.RuleEngine
	Processor     *processor.TransactionProcessor
	Alerts        *service.AlertService
	Notifications *service.NotificationService
	closers       []io.Closer
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ruleConfig, err := cfg.RuleConfig()
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Metrics: metrics.NewMetricsCollector(logger),
	}

	a.Notifications = a.newNotificationService()
	a.Engine = processor.NewRuleEngine(ruleConfig, store.Transactions(), logger)
	a.Processor = processor.NewTransactionProcessor(store, a.Engine, a.Notifications, a.Metrics, logger)
	a.Alerts = service.NewAlertService(store.Alerts(), a.Metrics, logger)

	return a, nil
}

// OpenStore opens the storage backend named by cfg.Driver.
func OpenStore(cfg config.StorageConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory, "":
		return memory.NewStore(), nil
	case config.DriverSQLite:
		store, err := sqlite.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case config.DriverMySQL:
		store, err := mysql.Open(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open mysql store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) newNotificationService() *service.NotificationService {
	n := a.Config.Notification

	// Interfaces stay untyped nil for unconfigured channels so they are skipped.
	var email service.EmailService
	if n.Mail.Enabled() {
		email = notify.NewSMTPEmailService(notify.SMTPConfig{
			Host:     n.Mail.Host,
			Port:     n.Mail.Port,
			Username: n.Mail.Username,
			Password: n.Mail.Password,
			From:     n.Mail.From,
		}, a.Logger)
	}

	var whatsapp service.SMSService
	if n.WhatsApp.Enabled() {
		whatsapp = notify.NewWhatsAppService(notify.WhatsAppConfig{
			AccountSID: n.WhatsApp.AccountSID,
			AuthToken:  n.WhatsApp.AuthToken,
			From:       n.WhatsApp.From,
			BaseURL:    n.WhatsApp.BaseURL,
		}, nil, a.Logger)
	}

	var events service.EventPublisher
	if n.Kafka.Enabled() {
		publisher := notify.NewKafkaPublisher(n.Kafka.Brokers, n.Kafka.Topic, a.Logger)
		a.closers = append(a.closers, publisher)
		events = publisher
	}

	a.Logger.Info("Notification channels configured",
		slog.Bool("email", email != nil),
		slog.Bool("whatsapp", whatsapp != nil),
		slog.Bool("kafka", events != nil))

	return service.NewNotificationService(email, whatsapp, events, service.NotificationOptions{
		Workers:     n.Workers,
		QueueSize:   n.QueueSize,
		SendTimeout: n.SendTimeout,
	}, a.Metrics, a.Logger)
}

// Handler returns the HTTP API. Requests must be signed when a signing secret
// is configured.
func (a *App) Handler() http.Handler {
	var signer *crypto.Signer
	if a.Config.Security.SigningSecret != "" {
		signer = crypto.NewSigner(a.Config.Security.SigningSecret, a.Logger)
	}
	return api.NewAPIHandler(a.Processor, a.Alerts, signer, a.Config.Server.RequestTimeout, a.Logger).Routes()
}

// Shutdown drains pending notifications and releases the store and
// publishers.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.Notifications.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("notifications: %w", err))
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	return errors.Join(errs...)
}
