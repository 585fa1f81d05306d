package service

import (
	"context"
	"fraud_monitor/internal/domain"
	"sync"
)

type SentEmail struct {
	To      string
	Subject string
	Body    string
}

type MockEmailService struct {
	mu         sync.Mutex
	SentEmails []SentEmail
	Err        error
}

func (m *MockEmailService) SendEmail(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.SentEmails = append(m.SentEmails, SentEmail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *MockEmailService) Sent() []SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentEmail(nil), m.SentEmails...)
}

type SentSMS struct {
	To      string
	Message string
}

type MockSMSService struct {
	mu      sync.Mutex
	SentSMS []SentSMS
	Err     error
}

func (m *MockSMSService) SendSMS(ctx context.Context, to, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.SentSMS = append(m.SentSMS, SentSMS{To: to, Message: message})
	return nil
}

func (m *MockSMSService) Sent() []SentSMS {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentSMS(nil), m.SentSMS...)
}

type MockEventPublisher struct {
	mu        sync.Mutex
	Published []*domain.Transaction
	Err       error
}

func (m *MockEventPublisher) PublishFraudAlert(ctx context.Context, tx *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, tx)
	return nil
}

func (m *MockEventPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Published)
}
