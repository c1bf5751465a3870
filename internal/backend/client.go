// Package backend is the HTTP/JSON client for the external campaign backend.
// All campaign, goal, contact and group state lives server-side; this client
// only shapes requests and decodes responses.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultTimeout = 10 * time.Second

// Client talks to the campaign backend REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *zap.Logger
}

type Option func(*Client)

// WithTransport swaps the HTTP transport, mainly for tests and callers that
// need extra headers or tracing.
func WithTransport(t http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = t }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithRateLimit caps outbound requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Inf, 0),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.sendJSON(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) deleteJSON(ctx context.Context, path string) error {
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	body, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if jsonErr := json.Unmarshal(body, out); jsonErr != nil {
		return &APIError{
			Stage:      StageAfterRequest,
			Type:       TypeJSONParse,
			StatusCode: http.StatusOK,
			Body:       body,
			Err:        jsonErr,
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Stage: StageBeforeRequest, Type: TypeRateLimit, Err: err}
	}

	endpoint := c.baseURL + "/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, jsonErr := json.Marshal(in)
		if jsonErr != nil {
			return nil, &APIError{Stage: StageBeforeRequest, Type: TypeJSONParse, Err: jsonErr}
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, &APIError{Stage: StageBeforeRequest, Type: TypeRequestPrep, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("backend request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, &APIError{Stage: StageRequest, Type: TypeIO, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	body, readErr := io.ReadAll(res.Body)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return body, &APIError{
			Stage:      StageAfterRequest,
			Type:       TypeHTTPStatus,
			StatusCode: res.StatusCode,
			Body:       body,
		}
	}
	if readErr != nil {
		return body, &APIError{
			Stage:      StageAfterRequest,
			Type:       TypeIO,
			StatusCode: res.StatusCode,
			Body:       body,
			Err:        readErr,
		}
	}
	return body, nil
}
