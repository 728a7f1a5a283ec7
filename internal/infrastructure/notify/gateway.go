package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// GatewayNotifier posts rendered messages to an HTTP delivery gateway,
// throttled to the gateway's rate limit.
type GatewayNotifier struct {
	url       string
	client    *http.Client
	limiter   *rate.Limiter
	templates *Templates
}

func NewGatewayNotifier(url string, perSecond float64, templates *Templates) *GatewayNotifier {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &GatewayNotifier{
		url:       url,
		client:    &http.Client{Timeout: 10 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
		templates: templates,
	}
}

func (g *GatewayNotifier) Send(ctx context.Context, msg Message) error {
	r, err := g.templates.Render(msg)
	if err != nil {
		return err
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(r)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notify gateway: status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	return nil
}

// LogNotifier writes rendered messages to the log instead of delivering them.
type LogNotifier struct {
	log       logrus.FieldLogger
	templates *Templates
}

func NewLogNotifier(log logrus.FieldLogger, templates *Templates) *LogNotifier {
	return &LogNotifier{log: log, templates: templates}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	r, err := n.templates.Render(msg)
	if err != nil {
		return err
	}
	n.log.WithFields(logrus.Fields{
		"recipient": r.Recipient,
		"channel":   r.Channel,
		"subject":   r.Subject,
	}).Info("notification")
	return nil
}
