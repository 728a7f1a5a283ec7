// Package signing talks to the external document-signing service.
package signing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EnvelopeRequest describes the offer letter to be signed.
type EnvelopeRequest struct {
	OfferLetterID      string          `json:"offerLetterId"`
	ApplicationNumber  string          `json:"applicationNumber"`
	SignerEmail        string          `json:"signerEmail"`
	SignerName         string          `json:"signerName"`
	Amount             decimal.Decimal `json:"amount"`
	TermMonths         int             `json:"termMonths"`
	InterestRate       decimal.Decimal `json:"interestRate"`
	MonthlyInstallment decimal.Decimal `json:"monthlyInstallment"`
	Currency           string          `json:"currency"`
	ExpiresAt          *time.Time      `json:"expiresAt,omitempty"`
}

type Envelope struct {
	EnvelopeID string `json:"envelopeId"`
	Status     string `json:"status"`
}

type Client interface {
	CreateEnvelope(ctx context.Context, req EnvelopeRequest) (*Envelope, error)
	SendEnvelope(ctx context.Context, envelopeID string) (*Envelope, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) CreateEnvelope(ctx context.Context, req EnvelopeRequest) (*Envelope, error) {
	var out Envelope
	if err := c.do(ctx, http.MethodPost, "/envelopes", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SendEnvelope(ctx context.Context, envelopeID string) (*Envelope, error) {
	var out Envelope
	if err := c.do(ctx, http.MethodPost, "/envelopes/"+envelopeID+"/send", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("signing %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("signing %s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(b))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// NoopClient fakes envelope creation for environments without a signing
// service; envelopes are reported as sent immediately.
type NoopClient struct{}

func (NoopClient) CreateEnvelope(_ context.Context, req EnvelopeRequest) (*Envelope, error) {
	return &Envelope{EnvelopeID: "local-" + req.OfferLetterID, Status: "draft"}, nil
}

func (NoopClient) SendEnvelope(_ context.Context, envelopeID string) (*Envelope, error) {
	return &Envelope{EnvelopeID: envelopeID, Status: "sent"}, nil
}
