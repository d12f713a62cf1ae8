package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

const maxBodyBytes = 1 << 20

// Client talks to the remote payment gateway over HTTP.
type Client struct {
	log     *slog.Logger
	baseURL string
	hc      *http.Client
	tracer  trace.Tracer
}

func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(log, baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(log *slog.Logger, baseURL string, hc *http.Client) *Client {
	return &Client{
		log:     log,
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      hc,
		tracer:  otel.Tracer("payment-gateway-client"),
	}
}

// SendPayment posts req to /payments. A decoded 2xx answer is returned as is,
// including answers whose Success flag is false.
func (c *Client) SendPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResponse, error) {
	var resp domain.PaymentResponse
	if err := c.post(ctx, "/payments", req, &resp); err != nil {
		return domain.PaymentResponse{}, err
	}
	return resp, nil
}

// ValidatePayment posts req to /validate, which answers with a bare JSON boolean.
func (c *Client) ValidatePayment(ctx context.Context, req domain.PaymentRequest) (bool, error) {
	var ok bool
	if err := c.post(ctx, "/validate", req, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	ctx, span := c.tracer.Start(ctx, "POST "+path, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := c.do(ctx, span, path, in, out)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) do(ctx context.Context, span trace.Span, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	res, err := c.hc.Do(httpReq)
	if err != nil {
		c.log.Error("gateway request failed", "path", path, "err", err)
		return &domain.TransportError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return &domain.TransportError{Err: err}
	}
	span.SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		reason := strings.TrimSpace(string(body))
		if reason == "" {
			reason = http.StatusText(res.StatusCode)
		}
		c.log.Warn("gateway returned error status", "path", path, "status", res.StatusCode)
		return &domain.HTTPError{StatusCode: res.StatusCode, Body: reason}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.ErrEmptyResponse
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		c.log.Warn("gateway body not decodable", "path", path, "err", err)
		return domain.ErrEmptyResponse
	}
	return nil
}
