package remote

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

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/rhuanca/databricks-mcp-server/internal/domain"
	"github.com/rhuanca/databricks-mcp-server/internal/infra/telemetry"
)

// Options configures a Client. BaseURL and Token are fixed for its lifetime.
type Options struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	UserAgent string
	// Transport is the base round tripper under the bearer transport.
	Transport http.RoundTripper
	Logger    *zap.Logger
	Metrics   domain.Metrics
}

// Caller is the request surface service handlers depend on.
type Caller interface {
	Call(ctx context.Context, method, path string, query url.Values, body any, out any) error
}

var _ Caller = (*Client)(nil)

// Client issues authenticated JSON requests against one workspace.
// It is safe for concurrent use and holds no per-call state.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
	metrics   domain.Metrics
}

type apiError struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func NewClient(opts Options) (*Client, error) {
	base, err := ParseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, domain.ErrMissingToken
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	baseTransport := opts.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultRemoteTimeoutSeconds * time.Second
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = domain.DefaultUserAgent
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: opts.Token,
		TokenType:   "Bearer",
	})
	return &Client{
		base: base,
		http: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: source,
				Base:   baseTransport,
			},
		},
		userAgent: userAgent,
		logger:    logger.Named("remote"),
		metrics:   metrics,
	}, nil
}

// ParseBaseURL validates a workspace URL. A bare host gets https.
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrMissingHost
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse workspace url: %w", err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return nil, fmt.Errorf("workspace url scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("workspace url %q has no host", raw)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

// BaseURL returns the workspace URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Call sends one request and decodes the JSON response into out when out is
// non-nil. Non-2xx responses and network failures come back as TransportError.
// Call never retries.
func (c *Client) Call(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target, err := c.resolve(path, query)
	if err != nil {
		return domain.E(domain.KindInternal, "", "build request url", err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return domain.E(domain.KindInternal, "", "encode request body", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return domain.E(domain.KindInternal, "", "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if requestID, ok := telemetry.RequestIDFromContext(ctx); ok {
		req.Header.Set(telemetry.RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return c.networkError(ctx, method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	c.observe(method, resp.StatusCode, start)
	if err != nil {
		return c.networkError(ctx, method, path, err)
	}

	logger := telemetry.LoggerWithRequest(ctx, c.logger)
	logger.Debug("remote request",
		telemetry.MethodField(method),
		telemetry.PathField(path),
		telemetry.StatusField(resp.StatusCode),
		telemetry.DurationField(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, payload)
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &domain.Error{
			Kind:       domain.KindTransport,
			Message:    fmt.Sprintf("decode %s %s response: %v", method, path, err),
			Cause:      err,
			StatusCode: resp.StatusCode,
		}
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	target := *c.base
	target.Path = c.base.Path + "/" + strings.TrimLeft(ref.Path, "/")
	target.RawPath = c.base.EscapedPath() + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	merged := ref.Query()
	for key, values := range query {
		for _, value := range values {
			merged.Add(key, value)
		}
	}
	target.RawQuery = merged.Encode()
	return target.String(), nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	c.metrics.ObserveRemoteRequest(domain.RemoteRequestMetric{
		Method:   method,
		Status:   status,
		Duration: time.Since(start),
	})
}

func (c *Client) networkError(ctx context.Context, method, path string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.E(domain.KindTimeout, "", fmt.Sprintf("%s %s: deadline exceeded", method, path), ctx.Err())
	}
	return &domain.Error{
		Kind:        domain.KindTransport,
		Message:     fmt.Sprintf("%s %s: workspace unreachable: %v", method, path, err),
		Cause:       err,
		Unreachable: true,
	}
}

func statusError(status int, payload []byte) *domain.Error {
	var apiErr apiError
	_ = json.Unmarshal(payload, &apiErr)
	msg := strings.TrimSpace(apiErr.Message)
	if msg == "" {
		msg = strings.TrimSpace(string(payload))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &domain.Error{
		Kind:       domain.KindTransport,
		Message:    msg,
		StatusCode: status,
		RemoteCode: apiErr.ErrorCode,
	}
}
