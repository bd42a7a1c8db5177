package syncgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jinhealth/reconcile/internal/api"
	"github.com/jinhealth/reconcile/internal/log"
)

// RequestIDHeader carries a per-request id the server echoes into its logs.
const RequestIDHeader = "X-Request-ID"

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero means no limit beyond the caller's context.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// Client talks to the backend over HTTP/JSON.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	tracer  trace.Tracer
}

// NewClient returns a client rooted at baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		tracer: otel.Tracer("github.com/jinhealth/reconcile/internal/syncgw"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CompanyList fetches every known raw company name.
func (c *Client) CompanyList(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, api.PathCompanyList, nil, &out)
	return out, err
}

// CompanyMap fetches the existing merge rows.
func (c *Client) CompanyMap(ctx context.Context) ([]api.MapRow, error) {
	var out []api.MapRow
	err := c.do(ctx, http.MethodGet, api.PathCompanyMap, nil, &out)
	return out, err
}

// CompanyExcludes fetches the exclusion list.
func (c *Client) CompanyExcludes(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, api.PathCompanyExclude, nil, &out)
	return out, err
}

// Sync replaces the backend's map and exclusion tables.
func (c *Client) Sync(ctx context.Context, req api.SyncRequest) (api.SyncResponse, error) {
	var out api.SyncResponse
	err := c.do(ctx, http.MethodPost, api.PathSync, req, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("request.id", reqID),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s body: %w", path, err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatSync, "Request failed", err, "method", method, "path", path, "request_id", reqID)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug(log.CatSync, "Request done", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start), "request_id", reqID)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &HTTPError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
