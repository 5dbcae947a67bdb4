// Package nubefact submits fiscal documents to the Nubefact electronic
// invoicing API.
package nubefact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/Alex240101/oxapampa/internal/domain/invoicing"
	"github.com/Alex240101/oxapampa/internal/infrastructure/logger"
	"github.com/Alex240101/oxapampa/internal/infrastructure/telemetry"
)

const (
	AuthSchemeToken  = "token"
	AuthSchemeBearer = "bearer"

	defaultTimeout = 30 * time.Second

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 1 << 20
)

// Config holds the provider endpoint and credentials.
type Config struct {
	URL        string
	Token      string
	AuthScheme string // token (default) or bearer
	Timeout    time.Duration
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.New("nubefact: url is required")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("nubefact: url %q must be absolute", c.URL)
	}
	if c.Token == "" {
		return errors.New("nubefact: token is required")
	}
	switch strings.ToLower(c.AuthScheme) {
	case "", AuthSchemeToken, AuthSchemeBearer:
	default:
		return fmt.Errorf("nubefact: unknown auth scheme %q", c.AuthScheme)
	}
	return nil
}

// Client implements invoicing.Provider.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a provider client. Outgoing requests are traced.
func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log,
	}, nil
}

// errorResponse is the body the provider sends with a rejection.
type errorResponse struct {
	Errors string `json:"errors"`
	Code   int    `json:"codigo"`
}

// Submit posts payload and decodes the provider's answer. Every failure,
// including a 2xx body that carries "errors", is an *invoicing.ExternalProviderError.
func (c *Client) Submit(ctx context.Context, payload *invoicing.Payload) (*invoicing.ProviderResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "nubefact.submit",
		telemetry.WithAttribute(telemetry.SpanAttrSeries, payload.Series),
		telemetry.WithAttribute(telemetry.SpanAttrNumber, payload.Number),
	)
	defer span.End()
	log := logger.For(ctx, c.logger)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("nubefact: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("nubefact: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", c.authorization())

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		perr := &invoicing.ExternalProviderError{Message: "provider unreachable", Err: err}
		telemetry.RecordError(span, perr)
		log.Warn("Provider request failed", zap.Error(err), zap.Duration("elapsed", time.Since(started)))
		return nil, perr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		perr := &invoicing.ExternalProviderError{StatusCode: resp.StatusCode, Message: "unreadable response", Err: err}
		telemetry.RecordError(span, perr)
		return nil, perr
	}
	telemetry.SetAttributes(span, "http.status_code", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		perr := &invoicing.ExternalProviderError{StatusCode: resp.StatusCode, Message: rejectionMessage(raw), Raw: raw}
		telemetry.RecordError(span, perr)
		log.Warn("Provider rejected document",
			zap.Int("status", resp.StatusCode),
			zap.String("series", payload.Series),
			zap.Int("number", payload.Number),
			zap.String("message", perr.Message),
		)
		return nil, perr
	}

	var out invoicing.ProviderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		perr := &invoicing.ExternalProviderError{StatusCode: resp.StatusCode, Message: "malformed response", Raw: raw, Err: err}
		telemetry.RecordError(span, perr)
		return nil, perr
	}
	if out.Errors != "" {
		perr := &invoicing.ExternalProviderError{StatusCode: resp.StatusCode, Message: out.Errors, Raw: raw}
		telemetry.RecordError(span, perr)
		return nil, perr
	}
	out.Raw = json.RawMessage(raw)

	log.Info("Provider accepted document",
		zap.String("series", payload.Series),
		zap.Int("number", payload.Number),
		zap.Bool("accepted_by_sunat", out.AcceptedBySunat),
		zap.Duration("elapsed", time.Since(started)),
	)
	return &out, nil
}

func (c *Client) authorization() string {
	if strings.EqualFold(c.config.AuthScheme, AuthSchemeBearer) {
		return "Bearer " + c.config.Token
	}
	return fmt.Sprintf("Token token=%q", c.config.Token)
}

func rejectionMessage(raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Errors != "" {
		return er.Errors
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
