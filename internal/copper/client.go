// Package copper is an authenticated client for the Copper developer API.
package copper

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/copperpack/copper-pack/internal/cache"
	"github.com/copperpack/copper-pack/internal/metrics"
	"github.com/copperpack/copper-pack/internal/telemetry"
)

const (
	headerAccessToken = "X-PW-AccessToken"
	headerApplication = "X-PW-Application"
	headerUserEmail   = "X-PW-UserEmail"
	applicationName   = "developer_api"

	defaultTimeout = 30 * time.Second
)

// Credentials are the two secrets Copper requires on every request.
type Credentials struct {
	APIKey    string
	UserEmail string
}

// Validate checks both secrets are present.
func (c Credentials) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("copper: API key is required")
	}
	if c.UserEmail == "" {
		return fmt.Errorf("copper: user email is required")
	}
	return nil
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. https://api.copper.com/developer_api/v1/.
	BaseURL string

	// Timeout applies when HTTPClient is nil. Defaults to 30 seconds.
	Timeout time.Duration

	// HTTPClient is an optional shared client.
	HTTPClient *http.Client
}

// Client issues authenticated requests to Copper. It performs no retries.
// All methods are safe for concurrent use.
type Client struct {
	baseURL *url.URL
	creds   Credentials
	http    *http.Client
	cache   cache.Store
	logger  *slog.Logger
}

// Request describes one API call.
type Request struct {
	Endpoint string // relative to the base URL, e.g. "opportunities/search"
	Method   string
	// Payload is sent as query parameters for GET and as a JSON body otherwise.
	// GET payloads must be map[string]any or url.Values.
	Payload any
	// CacheTTL > 0 lets an identical GET be served from the response cache.
	CacheTTL time.Duration
}

// Response is the raw result of a call.
type Response struct {
	Status int
	Body   []byte
	Cached bool
}

// NewClient creates a client bound to one set of credentials. A nil store
// disables response caching.
func NewClient(opts Options, creds Credentials, store cache.Store, logger *slog.Logger) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	base, err := url.Parse(opts.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("copper: invalid base URL %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if store == nil {
		store = cache.Nop{}
	}

	return &Client{
		baseURL: base,
		creds:   creds,
		http:    httpClient,
		cache:   store,
		logger:  logger,
	}, nil
}

// Identity returns a digest of both credentials. It scopes cache keys, so a
// response cached for one key is never served to a caller holding another
// key for the same account. The raw secrets never appear in it.
func (c *Client) Identity() string {
	sum := sha256.Sum256([]byte(c.creds.APIKey + "\x00" + strings.ToLower(c.creds.UserEmail)))
	return hex.EncodeToString(sum[:])
}

// Cache returns the response cache backing this client.
func (c *Client) Cache() cache.Store {
	return c.cache
}

// Call performs one request. Any non-2xx status or transport failure is
// returned as *APIError.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	endpoint := strings.TrimPrefix(req.Endpoint, "/")

	target := c.baseURL.JoinPath(endpoint)
	var body io.Reader
	if method == http.MethodGet {
		query, err := encodeQuery(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("copper: %s %s: %w", method, endpoint, err)
		}
		target.RawQuery = query
	} else if req.Payload != nil {
		b, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, fmt.Errorf("copper: marshaling request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	cacheable := method == http.MethodGet && req.CacheTTL > 0
	key := c.cacheKey(method, target.String())
	if cacheable {
		if cached, ok, err := c.cache.Get(ctx, key); err != nil {
			c.logger.Warn("copper: cache read failed", "endpoint", endpoint, "error", err)
		} else if ok {
			metrics.Inc(metrics.CacheHits)
			c.logger.Debug("copper: cache hit", "endpoint", endpoint)
			return &Response{Status: http.StatusOK, Body: cached, Cached: true}, nil
		}
		metrics.Inc(metrics.CacheMisses)
	}

	ctx, span := telemetry.Tracer().Start(ctx, "copper "+method)
	span.SetAttributes(
		attribute.String("copper.endpoint", endpoint),
		attribute.String("http.request.method", method),
	)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("copper: creating request: %w", err)
	}
	httpReq.Header.Set(headerAccessToken, c.creds.APIKey)
	httpReq.Header.Set(headerApplication, applicationName)
	httpReq.Header.Set(headerUserEmail, c.creds.UserEmail)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	metrics.Inc(metrics.APICalls)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.Inc(metrics.APIErrors)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		return nil, &APIError{Method: method, Endpoint: endpoint, Message: err.Error(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.Inc(metrics.APIErrors)
		return nil, &APIError{StatusCode: resp.StatusCode, Method: method, Endpoint: endpoint, Message: "reading response body", Err: err}
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	c.logger.Debug("copper: call", "method", method, "endpoint", endpoint,
		"status_code", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.Inc(metrics.APIErrors)
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Endpoint:   endpoint,
			Message:    errorMessage(rawBody),
		}
	}

	if cacheable {
		if err := c.cache.Set(ctx, key, rawBody, req.CacheTTL); err != nil {
			c.logger.Warn("copper: cache write failed", "endpoint", endpoint, "error", err)
		}
	}

	return &Response{Status: resp.StatusCode, Body: rawBody}, nil
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, endpoint string, query map[string]any, ttl time.Duration) (*Response, error) {
	return c.Call(ctx, Request{Endpoint: endpoint, Method: http.MethodGet, Payload: query, CacheTTL: ttl})
}

// Post issues a POST with a JSON body. POST responses are never cached.
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.Call(ctx, Request{Endpoint: endpoint, Method: http.MethodPost, Payload: payload})
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.Call(ctx, Request{Endpoint: endpoint, Method: http.MethodPut, Payload: payload})
}

// Decode unmarshals a response body into dest.
func Decode(resp *Response, dest any) error {
	if err := json.Unmarshal(resp.Body, dest); err != nil {
		return fmt.Errorf("copper: decoding response: %w", err)
	}
	return nil
}

func (c *Client) cacheKey(method, target string) string {
	return method + " " + target + " as " + c.Identity()
}

// encodeQuery renders a GET payload as a sorted query string.
func encodeQuery(payload any) (string, error) {
	switch p := payload.(type) {
	case nil:
		return "", nil
	case url.Values:
		return p.Encode(), nil
	case map[string]any:
		values := url.Values{}
		keys := make([]string, 0, len(p))
		for k := range p {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := p[k].(type) {
			case nil:
			case []string:
				for _, s := range v {
					values.Add(k, s)
				}
			case []any:
				for _, s := range v {
					values.Add(k, fmt.Sprint(s))
				}
			default:
				values.Add(k, fmt.Sprint(v))
			}
		}
		return values.Encode(), nil
	}
	return "", fmt.Errorf("unsupported query payload %T", payload)
}

// errorMessage extracts Copper's error message, falling back to the raw body.
func errorMessage(body []byte) string {
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response"
	}
	const maxLen = 500
	if len(msg) > maxLen {
		cut := maxLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}
		msg = msg[:cut] + "..."
	}
	return msg
}
