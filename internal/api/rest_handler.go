package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fraud_monitor/internal/domain"
	"fraud_monitor/internal/processor"
	"fraud_monitor/internal/service"
	"fraud_monitor/pkg/crypto"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const (
	SignatureHeader = "X-Signature"
	maxBodyBytes    = 1 << 20
)

type APIHandler struct {
	processor      *processor.TransactionProcessor
	alerts         *service.AlertService
	signer         *crypto.Signer
	logger         *slog.Logger
	requestTimeout time.Duration
}

// NewAPIHandler wires the HTTP boundary. A nil signer disables request
// signature checks.
func NewAPIHandler(
	processor *processor.TransactionProcessor,
	alerts *service.AlertService,
	signer *crypto.Signer,
	requestTimeout time.Duration,
	logger *slog.Logger,
) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return &APIHandler{
		processor:      processor,
		alerts:         alerts,
		signer:         signer,
		logger:         logger,
		requestTimeout: requestTimeout,
	}
}

type CreateTransactionRequest struct {
	AccountID   string              `json:"account_id"`
	Amount      decimal.NullDecimal `json:"amount"`
	Currency    string              `json:"currency"`
	Category    domain.Category     `json:"category"`
	Channel     domain.Channel      `json:"channel,omitempty"`
	Merchant    string              `json:"merchant,omitempty"`
	CountryCode string              `json:"country_code,omitempty"`
	DeviceID    string              `json:"device_id,omitempty"`
	UserEmail   string              `json:"user_email,omitempty"`
	UserPhone   string              `json:"user_phone,omitempty"`
	EventTime   time.Time           `json:"event_time"`
}

func (req CreateTransactionRequest) toEvent() *domain.TransactionEvent {
	return &domain.TransactionEvent{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Channel:     req.Channel,
		Merchant:    req.Merchant,
		CountryCode: req.CountryCode,
		DeviceID:    req.DeviceID,
		UserEmail:   req.UserEmail,
		UserPhone:   req.UserPhone,
		EventTime:   req.EventTime,
	}
}

type TransactionResponse struct {
	*domain.Transaction
	Reasons []string `json:"reasons"`
}

func newTransactionResponse(tx *domain.Transaction) TransactionResponse {
	return TransactionResponse{Transaction: tx, Reasons: tx.Reasons()}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func (h *APIHandler) CreateTransactionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, "Invalid request body", http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	tx, err := h.processor.ProcessTransaction(ctx, req.toEvent())
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, newTransactionResponse(tx), http.StatusOK)
}

func (h *APIHandler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	tx, err := h.processor.GetTransaction(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	h.sendJSON(w, newTransactionResponse(tx), http.StatusOK)
}

func (h *APIHandler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		h.sendError(w, "account_id is required", http.StatusBadRequest, "MISSING_ACCOUNT_ID", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	txs, err := h.processor.ListByAccount(ctx, accountID)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	response := make([]TransactionResponse, len(txs))
	for i, tx := range txs {
		response[i] = newTransactionResponse(tx)
	}
	h.sendJSON(w, response, http.StatusOK)
}

func (h *APIHandler) ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	status := domain.AlertStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.AlertOpen
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	alerts, err := h.alerts.ListAlerts(ctx, status)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}
	h.sendJSON(w, alerts, http.StatusOK)
}

func (h *APIHandler) GetAlertHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	alert, err := h.alerts.GetAlert(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}
	h.sendJSON(w, alert, http.StatusOK)
}

func (h *APIHandler) CloseAlertHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	alert, err := h.alerts.CloseAlert(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}
	h.sendJSON(w, alert, http.StatusOK)
}

func (h *APIHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}
	h.sendJSON(w, response, http.StatusOK)
}

// verifySignature rejects request bodies that do not carry a valid
// X-Signature header. The body is buffered and handed on unchanged.
func (h *APIHandler) verifySignature(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.signer == nil {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			h.sendError(w, "Request body too large or unreadable", http.StatusBadRequest, "INVALID_REQUEST", "")
			return
		}
		if err := h.signer.Verify(body, r.Header.Get(SignatureHeader)); err != nil {
			h.sendError(w, "Invalid signature", http.StatusUnauthorized, "INVALID_SIGNATURE", err.Error())
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (h *APIHandler) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		h.sendError(w, "Validation failed", http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.sendError(w, "Resource not found", http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrConflict):
		h.sendError(w, "Resource was modified concurrently, refresh and retry", http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrDependency):
		h.logger.Error("Dependency failure", slog.String("error", err.Error()))
		h.sendError(w, "Service temporarily unavailable", http.StatusServiceUnavailable, "DEPENDENCY_FAILURE", "")
	default:
		h.logger.Error("Unexpected error", slog.String("error", err.Error()))
		h.sendError(w, "Internal server error", http.StatusInternalServerError, "SERVER_ERROR", "")
	}
}

func (h *APIHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response", slog.String("error", err.Error()))
	}
}

func (h *APIHandler) sendError(w http.ResponseWriter, message string, statusCode int, code, details string) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(errorResponse)

	h.logger.Warn("API error response",
		slog.String("message", message),
		slog.String("code", code),
		slog.Int("status", statusCode))
}
