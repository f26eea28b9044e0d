package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxRetries = 3
	baseDelay  = time.Second
)

// Sender delivers a single notification. Errors are retried by the outbox
// relay; senders should not retry transient failures more than briefly.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// LogSender writes notifications to the log instead of delivering them.
// Default when no mail API is configured.
type LogSender struct {
	Log *logrus.Logger
}

func (s *LogSender) Send(_ context.Context, n Notification) error {
	if s.Log == nil {
		return nil
	}
	s.Log.WithFields(logrus.Fields{
		"kind": string(n.Kind),
		"to":   n.To,
	}).Info("notification (log sender)")
	return nil
}

// HTTPSender posts notifications to an HTTP mail-provider API.
type HTTPSender struct {
	APIURL      string
	APIKey      string
	FromAddress string
	FromName    string
	Client      *http.Client
}

func NewHTTPSender(apiURL, apiKey, fromAddress, fromName string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		APIURL:      apiURL,
		APIKey:      apiKey,
		FromAddress: fromAddress,
		FromName:    fromName,
		Client:      &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From     string            `json:"from"`
	FromName string            `json:"from_name,omitempty"`
	To       string            `json:"to"`
	Template string            `json:"template"`
	Vars     map[string]string `json:"vars,omitempty"`
}

func (s *HTTPSender) Send(ctx context.Context, n Notification) error {
	if s.APIURL == "" {
		return errors.New("mail api url is not configured")
	}

	body, err := json.Marshal(sendRequest{
		From:     s.FromAddress,
		FromName: s.FromName,
		To:       n.To,
		Template: string(n.Kind),
		Vars:     n.Vars,
	})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.APIURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.APIKey)
		}

		resp, err := s.Client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("mail api returned status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			// Client errors will not heal on retry.
			return lastErr
		}
	}

	return lastErr
}
