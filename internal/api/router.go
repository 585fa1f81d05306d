package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the chi router with every API route mounted.
func (h *APIHandler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HealthCheckHandler)

		r.Route("/transactions", func(r chi.Router) {
			r.With(h.verifySignature).Post("/", h.CreateTransactionHandler)
			r.Get("/", h.ListTransactionsHandler)
			r.Get("/{id}", h.GetTransactionHandler)
		})

		r.Route("/fraud-alerts", func(r chi.Router) {
			r.Get("/", h.ListAlertsHandler)
			r.Get("/{id}", h.GetAlertHandler)
			r.With(h.verifySignature).Post("/{id}/close", h.CloseAlertHandler)
		})
	})

	return r
}

func (h *APIHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.InfoContext(r.Context(), "HTTP request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}
