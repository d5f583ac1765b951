package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "http://localhost:3000/api"
	DefaultTimeout = 10 * time.Second

	maxResponseSize = 16 << 20
)

var tracer = otel.Tracer("admin-dashboard/apiclient")

// ErrInvalidLoginResponse is returned when a login succeeds but carries no
// token.
var ErrInvalidLoginResponse = errors.New("Invalid response from server")

// Config configures the remote API connection.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Client talks to the remote healthcare API. The bearer token is taken from
// the Credentials attached to each call's context.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	transport http.RoundTripper
	cache     *QueryCache
	inflight  *inflight
	logger    zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "admin-dashboard"
	}

	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		transport: http.DefaultTransport,
		cache:     NewQueryCache(),
		inflight:  newInflight(),
		logger:    logger.With().Str("component", "apiclient").Logger(),
	}
	c.client = &http.Client{Timeout: cfg.Timeout, Transport: c}
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return c.transport.RoundTrip(req)
}

// Cache exposes the query cache.
func (c *Client) Cache() *QueryCache { return c.cache }

// Get fetches path and decodes the (possibly enveloped) response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

// Send issues a JSON request. in may be nil.
func (c *Client) Send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "apiclient: encode request")
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, nil, body, contentType, out)
}

// SendMultipart issues a request with a prepared multipart body.
func (c *Client) SendMultipart(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	return c.do(ctx, method, path, nil, body, contentType, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, "", nil)
}

// Authenticate exchanges admin credentials for a token. The token may be at
// the top level or inside a data envelope.
func (c *Client) Authenticate(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
		Data  *struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	body := map[string]string{"email": email, "password": password}
	b, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "apiclient: encode login")
	}
	if err := c.doRaw(ctx, http.MethodPost, "/auth/login", nil, bytes.NewReader(b), "application/json", &resp); err != nil {
		return "", err
	}
	if resp.Token != "" {
		return resp.Token, nil
	}
	if resp.Data != nil && resp.Data.Token != "" {
		return resp.Data.Token, nil
	}
	return "", ErrInvalidLoginResponse
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	raw, err := c.roundTrip(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := decodeEnvelope(raw, out); err != nil {
		return errors.Wrapf(err, "apiclient: decode %s %s", method, path)
	}
	return nil
}

// doRaw decodes the body without unwrapping a data envelope.
func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	raw, err := c.roundTrip(ctx, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "apiclient: decode %s %s", method, path)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	route := routeOf(path)
	ctx, span := tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
		))
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "apiclient: build request")
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	creds := CredentialsFrom(ctx)
	if creds != nil {
		if token := creds.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		observe(method, route, 0, started)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		c.logger.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Msg("api request failed")
		return nil, &Error{
			Kind:   KindTransport,
			Method: method,
			Path:   path,
			cause:  errors.Wrap(err, "apiclient: perform request"),
		}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	observe(method, route, resp.StatusCode, started)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: serverMessage(raw),
			Method:  method,
			Path:    path,
		}
		span.SetStatus(codes.Error, apiErr.Kind.String())
		c.logger.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("kind", apiErr.Kind.String()).
			Str("message", apiErr.Message).
			Msg("api request rejected")

		if apiErr.Kind == KindUnauthorized && creds != nil {
			if err := creds.Expire(ctx); err != nil {
				c.logger.Error().Err(err).Msg("expire session")
			}
		}
		return nil, apiErr
	}

	if readErr != nil {
		return nil, &Error{
			Kind:   KindTransport,
			Status: resp.StatusCode,
			Method: method,
			Path:   path,
			cause:  errors.Wrap(readErr, "apiclient: read response"),
		}
	}
	return raw, nil
}

// decodeEnvelope decodes raw into out, unwrapping a {"data": ...} envelope
// when present.
func decodeEnvelope(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}

func serverMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
