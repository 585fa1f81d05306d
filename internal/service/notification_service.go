package service

import (
	"context"
	"fmt"
	"fraud_monitor/internal/domain"
	"fraud_monitor/pkg/metrics"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type NotificationType string

const (
	NotificationEmail    NotificationType = "email"
	NotificationWhatsApp NotificationType = "whatsapp"
	NotificationEvent    NotificationType = "event"
)

const (
	defaultQueueSize   = 1000
	defaultSendTimeout = 10 * time.Second
)

type NotificationService struct {
	emailService   EmailService
	smsService     SMSService
	eventPublisher EventPublisher
	messageQueue   chan NotificationMessage
	workers        int
	sendTimeout    time.Duration
	mu             sync.RWMutex
	closed         bool
	wg             sync.WaitGroup
	metrics        *metrics.MetricsCollector
	logger         *slog.Logger
}

type NotificationMessage struct {
	Type        NotificationType
	Recipient   string
	Subject     string
	Message     string
	Transaction *domain.Transaction
	CreatedAt   time.Time
}

type EmailService interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSService delivers short text messages to a phone number. The production
// implementation sends WhatsApp messages.
type SMSService interface {
	SendSMS(ctx context.Context, to, message string) error
}

// EventPublisher emits a machine readable fraud event for downstream systems.
type EventPublisher interface {
	PublishFraudAlert(ctx context.Context, tx *domain.Transaction) error
}

type NotificationOptions struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// NewNotificationService starts opts.Workers delivery workers. Any of the
// channels may be nil, in which case it is skipped. With zero workers every
// message is delivered inline by NotifyFraud, still bounded by SendTimeout.
func NewNotificationService(
	emailService EmailService,
	smsService SMSService,
	eventPublisher EventPublisher,
	opts NotificationOptions,
	metricsCollector *metrics.MetricsCollector,
	logger *slog.Logger,
) *NotificationService {
	if logger == nil {
		logger = slog.Default()
	}
	if metricsCollector == nil {
		metricsCollector = metrics.NewMetricsCollector(logger)
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.Workers < 0 {
		opts.Workers = 0
	}

	service := &NotificationService{
		emailService:   emailService,
		smsService:     smsService,
		eventPublisher: eventPublisher,
		messageQueue:   make(chan NotificationMessage, opts.QueueSize),
		workers:        opts.Workers,
		sendTimeout:    opts.SendTimeout,
		metrics:        metricsCollector,
		logger:         logger,
	}

	service.startWorkers()

	return service
}

// NotifyFraud queues one message per configured channel for a flagged
// transaction. It never blocks: when the queue is full the message is dropped
// and logged.
func (s *NotificationService) NotifyFraud(ctx context.Context, tx *domain.Transaction) {
	if tx == nil {
		return
	}

	subject := fmt.Sprintf("Fraud alert on account %s", tx.AccountID)
	body := composeFraudMessage(tx)
	now := time.Now()

	var notifications []NotificationMessage
	if s.emailService != nil && strings.TrimSpace(tx.UserEmail) != "" {
		notifications = append(notifications, NotificationMessage{
			Type:        NotificationEmail,
			Recipient:   tx.UserEmail,
			Subject:     subject,
			Message:     body,
			Transaction: tx,
			CreatedAt:   now,
		})
	}
	if s.smsService != nil && strings.TrimSpace(tx.UserPhone) != "" {
		notifications = append(notifications, NotificationMessage{
			Type:        NotificationWhatsApp,
			Recipient:   tx.UserPhone,
			Subject:     subject,
			Message:     body,
			Transaction: tx,
			CreatedAt:   now,
		})
	}
	if s.eventPublisher != nil {
		notifications = append(notifications, NotificationMessage{
			Type:        NotificationEvent,
			Recipient:   tx.AccountID,
			Subject:     subject,
			Transaction: tx,
			CreatedAt:   now,
		})
	}

	for _, notification := range notifications {
		s.enqueue(ctx, notification)
	}
}

func (s *NotificationService) enqueue(ctx context.Context, msg NotificationMessage) {
	if s.workers == 0 {
		s.processNotification(msg, -1)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		s.drop(ctx, msg, "notification service is shut down")
		return
	}

	select {
	case s.messageQueue <- msg:
		s.logger.DebugContext(ctx, "Notification queued",
			slog.String("type", string(msg.Type)),
			slog.String("transaction_id", msg.Transaction.ID))
	default:
		s.drop(ctx, msg, "notification queue is full")
	}
}

func (s *NotificationService) drop(ctx context.Context, msg NotificationMessage, reason string) {
	s.metrics.RecordNotificationDropped()
	s.logger.WarnContext(ctx, "Notification dropped",
		slog.String("type", string(msg.Type)),
		slog.String("transaction_id", msg.Transaction.ID),
		slog.String("reason", reason))
}

func (s *NotificationService) startWorkers() {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
}

func (s *NotificationService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("Notification worker started", slog.Int("worker_id", id))

	for msg := range s.messageQueue {
		s.processNotification(msg, id)
	}

	s.logger.Debug("Notification worker stopping", slog.Int("worker_id", id))
}

func (s *NotificationService) processNotification(msg NotificationMessage, workerID int) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
	defer cancel()

	err := s.deliver(ctx, msg)
	duration := time.Since(startTime)

	if err != nil {
		s.metrics.RecordNotification(string(msg.Type), metrics.OutcomeFailed)
		s.logger.Error("Failed to send notification",
			slog.String("type", string(msg.Type)),
			slog.String("transaction_id", msg.Transaction.ID),
			slog.String("error", err.Error()),
			slog.Int("worker_id", workerID),
			slog.Duration("duration", duration))
		return
	}

	s.metrics.RecordNotification(string(msg.Type), metrics.OutcomeSent)
	s.logger.Info("Notification sent successfully",
		slog.String("type", string(msg.Type)),
		slog.String("transaction_id", msg.Transaction.ID),
		slog.Int("worker_id", workerID),
		slog.Duration("duration", duration))
}

// deliver isolates one channel: a panicking transport fails this message only.
func (s *NotificationService) deliver(ctx context.Context, msg NotificationMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s transport panicked: %v", msg.Type, r)
		}
	}()

	switch msg.Type {
	case NotificationEmail:
		return s.emailService.SendEmail(ctx, msg.Recipient, msg.Subject, msg.Message)
	case NotificationWhatsApp:
		return s.smsService.SendSMS(ctx, msg.Recipient, msg.Message)
	case NotificationEvent:
		return s.eventPublisher.PublishFraudAlert(ctx, msg.Transaction)
	default:
		return fmt.Errorf("unknown notification type: %s", msg.Type)
	}
}

// Shutdown stops accepting messages and waits for the queued ones to be
// delivered, or for ctx to expire.
func (s *NotificationService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.messageQueue)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Notification service shutdown complete")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func composeFraudMessage(tx *domain.Transaction) string {
	amount := "n/a"
	if tx.Amount.Valid {
		amount = tx.Amount.Decimal.String()
	}
	merchant := tx.Merchant
	if merchant == "" {
		merchant = "n/a"
	}
	eventTime := "n/a"
	if !tx.EventTime.IsZero() {
		eventTime = tx.EventTime.UTC().Format(time.RFC3339)
	}

	return fmt.Sprintf(
		"Fraud Alert!\nAccount: %s\nTransaction ID: %s\nAmount: %s %s\nCategory: %s\nMerchant: %s\nReasons: %s\nTime: %s",
		tx.AccountID, tx.ID, amount, tx.Currency, tx.Category, merchant, tx.FraudReason, eventTime,
	)
}
