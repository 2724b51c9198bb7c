// Package api is the HTTP client for the student performance prediction
// service. All calls take a context, return typed responses, and classify
// failures into Error kinds; nothing here retries, since the caller (the
// what-if engine in particular) owns its own dispatch policy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/0ritam/studentlens/internal/logging"
	"github.com/0ritam/studentlens/internal/student"
)

// Operation names used in error messages.
const (
	opHealth     = "health check"
	opPredict    = "prediction"
	opExplain    = "explanation"
	opBatch      = "batch prediction"
	opGuidelines = "guidelines fetch"
)

// Client talks to one prediction service instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.Logger
}

// New returns a client for the service at baseURL. The timeout bounds
// each request end to end.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
		log:        logging.Get(logging.CategoryAPI),
	}
}

// BaseURL returns the configured service address.
func (c *Client) BaseURL() string { return c.baseURL }

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var out HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", opHealth, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Predict calls POST /predict for one student record.
func (c *Client) Predict(ctx context.Context, rec student.Record) (*Prediction, error) {
	var out Prediction
	if err := c.do(ctx, http.MethodPost, "/predict", opPredict, rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Explain calls POST /explain for one student record.
func (c *Client) Explain(ctx context.Context, rec student.Record) (*Explanation, error) {
	var out Explanation
	if err := c.do(ctx, http.MethodPost, "/explain", opExplain, rec, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchPredict calls POST /batch-predict for a set of records.
func (c *Client) BatchPredict(ctx context.Context, records []student.Record, includeExplanations bool) (*BatchResult, error) {
	req := batchRequest{Students: records, IncludeExplanations: includeExplanations}
	var out BatchResult
	if err := c.do(ctx, http.MethodPost, "/batch-predict", opBatch, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PassGuidelines calls GET /guidelines.
func (c *Client) PassGuidelines(ctx context.Context) (*Guidelines, error) {
	var out Guidelines
	if err := c.do(ctx, http.MethodGet, "/guidelines", opGuidelines, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do runs one request and maps the response onto out or an *Error.
func (c *Client) do(ctx context.Context, method, path, op string, in, out any) error {
	reqID := uuid.NewString()[:8]

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return &Error{Kind: KindUnknown, Op: op, Detail: fmt.Sprintf("encode request: %v", err), Err: err}
		}
		if logging.Dev() {
			c.log.Debug("request body", zap.String("req", reqID), zap.ByteString("body", payload))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindUnknown, Op: op, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug("request",
		zap.String("req", reqID),
		zap.String("method", method),
		zap.String("path", path))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := c.transportError(op, err)
		c.log.Debug("transport failure",
			zap.String("req", reqID),
			zap.Error(err))
		return apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(op, err)
	}

	c.log.Debug("response",
		zap.String("req", reqID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	if logging.Dev() {
		c.log.Debug("response body", zap.String("req", reqID), zap.ByteString("body", data))
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Kind: KindUnknown, Op: op, Status: resp.StatusCode,
				Detail: fmt.Sprintf("decode response: %v", err), Err: err}
		}
		return nil

	case resp.StatusCode == http.StatusUnprocessableEntity:
		detail := errorDetail(data)
		if detail == "" {
			detail = "input rejected by the service"
		}
		return &Error{Kind: KindValidation, Op: op, Status: resp.StatusCode, Detail: detail}

	case resp.StatusCode == http.StatusServiceUnavailable:
		return &Error{Kind: KindModelNotLoaded, Op: op, Status: resp.StatusCode,
			Detail: "model not loaded on the service yet; retry once it finishes starting"}

	case resp.StatusCode >= 500:
		detail := errorDetail(data)
		if detail == "" {
			detail = fmt.Sprintf("service error (HTTP %d)", resp.StatusCode)
		}
		return &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Detail: detail}

	default:
		return &Error{Kind: KindUnknown, Op: op, Status: resp.StatusCode,
			Detail: fmt.Sprintf("unexpected HTTP %d: %s", resp.StatusCode, snippet(data))}
	}
}

// transportError classifies request failures that never produced a
// response.
func (c *Client) transportError(op string, err error) *Error {
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUnknown, Op: op, Detail: "request cancelled", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op,
			Detail: fmt.Sprintf("request timed out after %s", c.timeout), Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op,
			Detail: fmt.Sprintf("request timed out after %s", c.timeout), Err: err}
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return &Error{Kind: KindUnreachable, Op: op,
			Detail: fmt.Sprintf("service unreachable at %s", c.baseURL), Err: err}
	}
	return &Error{Kind: KindUnknown, Op: op, Detail: err.Error(), Err: err}
}

// errorDetail extracts a human-readable message from an error body. The
// service has two shapes: its own handler writes {error, message, detail}
// while pydantic validation writes {detail: "..."} or {detail: [{loc,
// msg}, ...]}.
func errorDetail(body []byte) string {
	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return snippet(body)
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Detail) == 0 || string(payload.Detail) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if len(item.Loc) > 0 {
				if field, ok := item.Loc[len(item.Loc)-1].(string); ok {
					parts = append(parts, field+": "+item.Msg)
					continue
				}
			}
			parts = append(parts, item.Msg)
		}
		return strings.Join(parts, "; ")
	}
	return snippet(payload.Detail)
}

// snippet trims a response body for inclusion in an error message.
func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
