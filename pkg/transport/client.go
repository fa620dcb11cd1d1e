package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fsonnyboy/medcare/pkg/logger"
)

// DefaultTimeout bounds every request issued through the client.
const DefaultTimeout = 10 * time.Second

// Config describes an authenticated client for one session token.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration

	// OnUnauthorized is invoked synchronously, at most once per client,
	// before a 401 response is returned to the caller. There is no token
	// refresh; a 401 is terminal for the session.
	OnUnauthorized func()

	Logger     logger.Logger
	Registerer prometheus.Registerer

	// HTTPClient overrides the underlying client, mainly for tests.
	HTTPClient *http.Client
}

// Client issues JSON requests with a fixed base endpoint, bounded timeout,
// and a bearer Authorization header. The token is immutable; build a new
// Client whenever the token changes so no request can capture a stale one.
type Client struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	onUnauthorized func()
	once           sync.Once
	log            logger.Logger
	metrics        *clientMetrics
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Copy the caller's client so setting the timeout cannot mutate an
	// instance shared across rebuilds.
	httpClient := &http.Client{}
	if cfg.HTTPClient != nil {
		copied := *cfg.HTTPClient
		httpClient = &copied
	}
	httpClient.Timeout = timeout

	log := cfg.Logger
	if log == nil {
		log = logger.Nop{}
	}

	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		token:          cfg.Token,
		httpClient:     httpClient,
		onUnauthorized: cfg.OnUnauthorized,
		log:            log,
		metrics:        newClientMetrics(cfg.Registerer),
	}
}

// Token returns the session token this client was built with.
func (c *Client) Token() string {
	return c.token
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("transport: failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("transport: failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed",
			logger.Field{Key: "method", Value: method},
			logger.Field{Key: "path", Value: path},
			logger.Field{Key: "error", Value: err.Error()},
		)
		return fmt.Errorf("transport: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.metrics.observe(method, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("transport: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.unauthorized.Inc()
		// Tear down the session before the caller sees the rejection, so
		// nothing retries against a dead token.
		if c.onUnauthorized != nil {
			c.once.Do(c.onUnauthorized)
		}
		return decodeError(resp.StatusCode, data)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("transport: failed to decode response: %w", err)
		}
	}
	return nil
}
