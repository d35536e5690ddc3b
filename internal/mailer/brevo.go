package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// Mailer sends transactional email. The auth service only needs OTP codes.
type Mailer interface {
	SendEmail(ctx context.Context, toEmail, subject, html string) error
}

// BrevoClient talks to the Brevo transactional email API. An unconfigured
// client logs the email instead of sending it, which keeps local development
// working without credentials.
type BrevoClient struct {
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient *http.Client
	log        *zap.SugaredLogger
	configured bool
}

func NewBrevoClient(apiKey, fromEmail, fromName string, log *zap.SugaredLogger) *BrevoClient {
	c := &BrevoClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
	if apiKey != "" && fromEmail != "" && fromName != "" {
		c.apiKey = apiKey
		c.fromEmail = fromEmail
		c.fromName = fromName
		c.configured = true
	}
	return c
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HtmlContent string              `json:"htmlContent"`
}

func (c *BrevoClient) SendEmail(ctx context.Context, toEmail, subject, html string) error {
	if toEmail == "" || subject == "" || html == "" {
		return errors.New("toEmail, subject, and html content cannot be empty")
	}
	if !c.configured {
		c.log.Infow("mailer not configured, logging email instead", "to", toEmail, "subject", subject, "body", html)
		return nil
	}

	reqBody := sendEmailReq{
		Sender:      map[string]string{"email": c.fromEmail, "name": c.fromName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     subject,
		HtmlContent: html,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal email request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPIURL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request for Brevo: %w", err)
	}
	httpReq.Header.Set("api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("brevo send email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("brevo returned status %d", resp.StatusCode)
	}
	return nil
}
