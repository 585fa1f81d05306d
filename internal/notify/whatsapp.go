package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTwilioBaseURL = "https://api.twilio.com"

type WhatsAppConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
}

// WhatsAppService sends WhatsApp messages through the Twilio Messages API.
type WhatsAppService struct {
	cfg    WhatsAppConfig
	client *http.Client
	logger *slog.Logger
}

func NewWhatsAppService(cfg WhatsAppConfig, client *http.Client, logger *slog.Logger) *WhatsAppService {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &WhatsAppService{cfg: cfg, client: client, logger: logger}
}

func (s *WhatsAppService) SendSMS(ctx context.Context, to, message string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.cfg.BaseURL, url.PathEscape(s.cfg.AccountSID))

	form := url.Values{}
	form.Set("From", whatsAppAddress(s.cfg.From))
	form.Set("To", whatsAppAddress(to))
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	s.logger.DebugContext(ctx, "WhatsApp message accepted", slog.Int("status", resp.StatusCode))
	return nil
}

func whatsAppAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
