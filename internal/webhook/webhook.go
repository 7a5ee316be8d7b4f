// Package webhook delivers verification outcomes to the reporter's callback
// URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/sat-verify/internal/logging"
)

// Payload is the callback body the reporting backend expects.
type Payload struct {
	ReportID   string  `json:"reportId"`
	IsVerified bool    `json:"isVerified"`
	Timestamp  float64 `json:"timestamp"`
	Message    string  `json:"message"`
}

// Sender posts verification results to callback URLs with bounded retries.
type Sender struct {
	http     *http.Client
	logger   *zap.Logger
	attempts int
	wait     time.Duration
	now      func() time.Time
}

// NewSender builds a sender. The worker runs with attempts=3 and a 10s
// timeout; the API uses attempts=1 and 5s so a slow callback server cannot
// hold the request open.
func NewSender(attempts int, timeout, wait time.Duration, logger *zap.Logger) *Sender {
	if attempts < 1 {
		attempts = 1
	}
	return &Sender{
		http:     &http.Client{Timeout: timeout},
		logger:   logger.Named("webhook"),
		attempts: attempts,
		wait:     wait,
		now:      time.Now,
	}
}

// Deliver posts the payload to callbackURL. Any 2xx response counts as
// delivered; other statuses and transport errors are retried up to the
// configured attempts. The timestamp is stamped at send time.
func (s *Sender) Deliver(ctx context.Context, callbackURL string, payload Payload) error {
	payload.Timestamp = float64(s.now().UnixNano()) / float64(time.Second)

	body, err := json.Marshal(payload)
	if err != nil {
		return logging.NewOperationError("webhook.encode", payload.ReportID, err)
	}

	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError("webhook.deliver", payload.ReportID, ctx.Err())
			case <-time.After(s.wait):
			}
		}

		lastErr = s.post(ctx, callbackURL, body)
		if lastErr == nil {
			if attempt > 0 {
				s.logger.Info("webhook delivered after retry",
					zap.String("report_id", payload.ReportID), zap.Int("attempt", attempt+1))
			}
			return nil
		}
		s.logger.Warn("webhook delivery failed",
			zap.String("report_id", payload.ReportID),
			zap.String("callback_url", callbackURL),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}
	return logging.NewOperationError("webhook.deliver", payload.ReportID, lastErr)
}

func (s *Sender) post(ctx context.Context, callbackURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned %d", resp.StatusCode)
	}
	return nil
}
