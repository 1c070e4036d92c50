// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package sms

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

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// LogSender logs messages instead of sending them. Used in dev and in
// tests, and whenever Twilio credentials are not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, to, body string) error {
	slog.Info("sms (not sent, dev mode)", "to", to, "body", body)
	return nil
}

// TwilioSender delivers messages through the Twilio REST API.
type TwilioSender struct {
	Account             string
	MessagingServiceSID string
	SID                 string
	Secret              string

	// BaseURL overrides the Twilio endpoint in tests.
	BaseURL string
	// Client defaults to a client with a 10s timeout.
	Client *http.Client
}

func (s *TwilioSender) Send(ctx context.Context, to, body string) error {
	base := s.BaseURL
	if base == "" {
		base = "https://api.twilio.com"
	}
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", base, s.Account)

	form := url.Values{}
	form.Set("To", to)
	form.Set("MessagingServiceSid", s.MessagingServiceSID)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.SID, s.Secret)

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}

// FromConfig picks the Twilio sender when credentials are present and
// falls back to logging otherwise.
func FromConfig(account, messagingServiceSID, sid, secret string) Sender {
	if sid == "" {
		return LogSender{}
	}
	return &TwilioSender{
		Account:             account,
		MessagingServiceSID: messagingServiceSID,
		SID:                 sid,
		Secret:              secret,
	}
}
