package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/bulk-relay/internal/models"
	"github.com/example/bulk-relay/internal/util"
)

// DefaultBodyLimit caps how many bytes are retained from a downstream
// response body.
const DefaultBodyLimit = 64 * 1024

// HTTPClient abstracts the http.Client Do method for easier testing.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option customises the upload client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for downstream calls.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBodyLimit adjusts how many bytes are retained from a response body.
func WithBodyLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxBodyBytes = limit
		}
	}
}

// Result is the outcome of one downstream call that completed at the HTTP
// layer. Any status code is a valid result; only transport failures are
// reported as errors.
type Result struct {
	Status int
	Body   models.ParsedBody
}

// Client posts form-encoded payloads to the upload API.
type Client struct {
	logger       zerolog.Logger
	httpClient   HTTPClient
	maxBodyBytes int64
}

// NewClient constructs an upload client. The timeout bounds each downstream
// call; non-positive values fall back to 30 seconds.
func NewClient(timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &Client{
		logger:       logger,
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: DefaultBodyLimit,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	if client.maxBodyBytes <= 0 {
		client.maxBodyBytes = DefaultBodyLimit
	}

	return client
}

// Post issues one form-encoded POST to the target URL with the optional
// Authorization value. Non-2xx responses are valid results; only
// transport-level failures (bad URL, connection, timeout, body read) return
// an error.
func (c *Client) Post(ctx context.Context, target string, fields map[string]any, authHeader string) (Result, error) {
	encoded, err := EncodeForm(fields)
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(encoded))
	if err != nil {
		return Result{}, fmt.Errorf("upload: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("upload: http do: %w", err)
	}
	defer resp.Body.Close()

	raw, err := c.readBody(resp.Body)
	if err != nil {
		return Result{}, err
	}

	c.logger.Debug().
		Str("url", target).
		Int("status", resp.StatusCode).
		Str("body", util.Truncate(raw, 512)).
		Msg("upload response received")

	return Result{Status: resp.StatusCode, Body: models.ParseBody(raw)}, nil
}

func (c *Client) readBody(rc io.ReadCloser) (string, error) {
	if rc == nil {
		return "", nil
	}

	reader := io.LimitReader(rc, c.maxBodyBytes)
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("upload: read body: %w", err)
	}
	return string(data), nil
}
