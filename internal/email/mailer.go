package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Mailer delivers transactional mail. Implementations may call an email API
// or log to the console (development mode).
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// APIMailer sends mail through a SendGrid-compatible v3 API.
type APIMailer struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
	logger  *slog.Logger
}

var _ Mailer = (*APIMailer)(nil)

func NewAPIMailer(baseURL, apiKey, from string, logger *slog.Logger) *APIMailer {
	return &APIMailer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (m *APIMailer) Send(ctx context.Context, to, subject, body string) error {
	reqBody := sendRequest{
		Personalizations: []personalization{{To: []emailAddress{{Email: to}}}},
		From:             emailAddress{Email: m.from},
		Subject:          subject,
		Content:          []content{{Type: "text/html", Value: body}},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/mail/send", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}

	m.logger.Info("email sent", "to", to, "subject", subject)
	return nil
}

// ConsoleMailer logs mail instead of sending it, so login codes show up in
// the server output during development.
type ConsoleMailer struct {
	logger *slog.Logger
}

var _ Mailer = (*ConsoleMailer)(nil)

func NewConsoleMailer(logger *slog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

func (m *ConsoleMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("console mailer: email not sent", "to", to, "subject", subject, "body", body)
	return nil
}
