package internal_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"fraud_monitor/internal/api"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/processor"
	"fraud_monitor/internal/repository/memory"
	"fraud_monitor/internal/service"
	"fraud_monitor/pkg/crypto"
	"fraud_monitor/pkg/metrics"
)

const testSecret = "test-secret"

type testEnv struct {
	store     *memory.Store
	email     *service.MockEmailService
	sms       *service.MockSMSService
	events    *service.MockEventPublisher
	signer    *crypto.Signer
	processor *processor.TransactionProcessor
	server    *httptest.Server
}

func setup(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.Default()
	store := memory.NewStore()
	metricsCollector := metrics.NewMetricsCollector(logger)

	email := &service.MockEmailService{}
	sms := &service.MockSMSService{}
	events := &service.MockEventPublisher{}
	notifications := service.NewNotificationService(email, sms, events, service.NotificationOptions{}, metricsCollector, logger)

	engine := processor.NewRuleEngine(processor.DefaultRuleConfig(), store.Transactions(), logger)
	proc := processor.NewTransactionProcessor(store, engine, notifications, metricsCollector, logger)
	alerts := service.NewAlertService(store.Alerts(), metricsCollector, logger)
	signer := crypto.NewSigner(testSecret, logger)

	handler := api.NewAPIHandler(proc, alerts, signer, 0, logger)
	server := httptest.NewServer(handler.Routes())
	t.Cleanup(server.Close)

	return &testEnv{
		store:     store,
		email:     email,
		sms:       sms,
		events:    events,
		signer:    signer,
		processor: proc,
		server:    server,
	}
}

type transactionResponse struct {
	ID          string   `json:"id"`
	AccountID   string   `json:"account_id"`
	Amount      string   `json:"amount"`
	Fraudulent  bool     `json:"fraudulent"`
	FraudReason string   `json:"fraud_reason"`
	Reasons     []string `json:"reasons"`
}

func (env *testEnv) post(t *testing.T, path string, body []byte, signed bool) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.server.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signed {
		req.Header.Set(api.SignatureHeader, env.signer.Sign(body))
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (env *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(env.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func eventJSON(fields map[string]any) []byte {
	event := map[string]any{
		"account_id": "ACC-1",
		"amount":     "100.00",
		"currency":   "ZAR",
		"category":   "PURCHASE",
		"channel":    "WEB",
		"event_time": "2024-03-14T12:00:00Z",
	}
	for k, v := range fields {
		event[k] = v
	}
	b, _ := json.Marshal(event)
	return b
}

func TestIntegration_CleanTransaction(t *testing.T) {
	env := setup(t)

	resp := env.post(t, "/api/transactions", eventJSON(nil), true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	tx := decode[transactionResponse](t, resp)
	if tx.ID == "" || tx.Fraudulent || tx.FraudReason != "" || len(tx.Reasons) != 0 {
		t.Errorf("unexpected response %+v", tx)
	}
	if tx.Amount != "100" {
		t.Errorf("amount = %q", tx.Amount)
	}

	alerts := decode[[]domain.FraudAlert](t, env.get(t, "/api/fraud-alerts"))
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %d", len(alerts))
	}
}

func TestIntegration_FraudulentTransactionLifecycle(t *testing.T) {
	env := setup(t)

	body := eventJSON(map[string]any{
		"amount":     "20000",
		"merchant":   "Scam Mart",
		"user_email": "owner@example.com",
		"user_phone": "+27820000000",
	})
	resp := env.post(t, "/api/transactions", body, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	tx := decode[transactionResponse](t, resp)
	if !tx.Fraudulent || tx.FraudReason != "Amount exceeds category threshold, Merchant is blacklisted" {
		t.Fatalf("unexpected fraud verdict %+v", tx)
	}

	if len(env.email.Sent()) != 1 || len(env.sms.Sent()) != 1 || env.events.Count() != 1 {
		t.Errorf("expected one notification per channel, got email=%d sms=%d events=%d",
			len(env.email.Sent()), len(env.sms.Sent()), env.events.Count())
	}

	open := decode[[]domain.FraudAlert](t, env.get(t, "/api/fraud-alerts?status=OPEN"))
	if len(open) != 1 || open[0].TransactionID != tx.ID {
		t.Fatalf("expected one open alert for %s, got %+v", tx.ID, open)
	}
	alertID := open[0].ID

	got := decode[domain.FraudAlert](t, env.get(t, "/api/fraud-alerts/"+alertID))
	if got.Status != domain.AlertOpen {
		t.Errorf("alert status = %s", got.Status)
	}

	closePath := fmt.Sprintf("/api/fraud-alerts/%s/close", alertID)
	for i := 0; i < 2; i++ {
		resp := env.post(t, closePath, nil, true)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("close #%d: expected 200, got %d", i+1, resp.StatusCode)
		}
		closed := decode[domain.FraudAlert](t, resp)
		if closed.Status != domain.AlertClosed || closed.Version != 2 {
			t.Errorf("close #%d: got %s at version %d", i+1, closed.Status, closed.Version)
		}
	}

	if open := decode[[]domain.FraudAlert](t, env.get(t, "/api/fraud-alerts")); len(open) != 0 {
		t.Errorf("expected no open alerts after close, got %d", len(open))
	}
	if closed := decode[[]domain.FraudAlert](t, env.get(t, "/api/fraud-alerts?status=CLOSED")); len(closed) != 1 {
		t.Errorf("expected one closed alert, got %d", len(closed))
	}
}

func TestIntegration_TransactionQueries(t *testing.T) {
	env := setup(t)

	created := decode[transactionResponse](t, env.post(t, "/api/transactions", eventJSON(nil), true))

	got := decode[transactionResponse](t, env.get(t, "/api/transactions/"+created.ID))
	if got.ID != created.ID || got.AccountID != "ACC-1" {
		t.Errorf("unexpected transaction %+v", got)
	}

	list := decode[[]transactionResponse](t, env.get(t, "/api/transactions?account_id=ACC-1"))
	if len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("unexpected list %+v", list)
	}

	if resp := env.get(t, "/api/transactions/does-not-exist"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if resp := env.get(t, "/api/transactions"); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without account_id, got %d", resp.StatusCode)
	}
}

func TestIntegration_ErrorMapping(t *testing.T) {
	env := setup(t)

	tests := []struct {
		name   string
		do     func() *http.Response
		status int
	}{
		{"unsigned request", func() *http.Response {
			return env.post(t, "/api/transactions", eventJSON(nil), false)
		}, http.StatusUnauthorized},
		{"malformed json", func() *http.Response {
			return env.post(t, "/api/transactions", []byte(`{"amount":`), true)
		}, http.StatusBadRequest},
		{"validation failure", func() *http.Response {
			return env.post(t, "/api/transactions", eventJSON(map[string]any{"category": "LOTTERY"}), true)
		}, http.StatusBadRequest},
		{"unknown alert", func() *http.Response {
			return env.post(t, "/api/fraud-alerts/nope/close", nil, true)
		}, http.StatusNotFound},
		{"health", func() *http.Response {
			return env.get(t, "/api/health")
		}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if resp := tt.do(); resp.StatusCode != tt.status {
				t.Errorf("expected %d, got %d", tt.status, resp.StatusCode)
			}
		})
	}
}

func TestIntegration_ConcurrentTransactions(t *testing.T) {
	env := setup(t)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := eventJSON(map[string]any{"account_id": fmt.Sprintf("ACC-%d", i)})
			req, _ := http.NewRequest(http.MethodPost, env.server.URL+"/api/transactions", bytes.NewReader(body))
			req.Header.Set(api.SignatureHeader, env.signer.Sign(body))
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Errorf("request %d: %v", i, err)
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("request %d: status %d", i, resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		txs, err := env.processor.ListByAccount(context.Background(), fmt.Sprintf("ACC-%d", i))
		if err != nil || len(txs) != 1 {
			t.Errorf("account %d: %d transactions, err=%v", i, len(txs), err)
		}
	}
}
