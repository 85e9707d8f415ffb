package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"flowradar/pkg/errors"
)

// WebhookConfig configures one outbound webhook
type WebhookConfig struct {
	Name    string
	URL     string
	Timeout time.Duration
	// RatePerSecond caps outbound posts; 0 disables limiting
	RatePerSecond float64
	Burst         int
}

// WebhookChannel POSTs the payload as JSON to a configured URL with a
// client-side rate limit
type WebhookChannel struct {
	cfg     WebhookConfig
	client  *http.Client
	limiter *rate.Limiter
}

// NewWebhookChannel creates a webhook channel
func NewWebhookChannel(cfg WebhookConfig) *WebhookChannel {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst == 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &WebhookChannel{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
	}
}

// Name returns the configured channel name
func (w *WebhookChannel) Name() string {
	if w.cfg.Name != "" {
		return w.cfg.Name
	}
	return "webhook"
}

// Deliver posts the payload, waiting on the rate limiter first
func (w *WebhookChannel) Deliver(ctx context.Context, p Payload) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return errors.Wrap(err, "rate limit wait")
		}
	}

	body, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post webhook")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", w.cfg.URL, resp.StatusCode)
	}
	return nil
}
