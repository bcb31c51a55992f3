package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bnema/moonbix-cli/internal/domain"
	"github.com/bnema/moonbix-cli/internal/ports"
)

const (
	DefaultBaseURL        = "https://www.binance.com/bapi/growth/v1"
	DefaultRequestTimeout = 20 * time.Second

	maxResponseBytes = 1 << 20
	tokenHeader      = "X-Growth-Token"
	origin           = "https://www.binance.com"
	referer          = "https://www.binance.com/vi/game/tg/moon-bix"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Linux; Android 13; SM-S918B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 12; Pixel 6) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (Linux; Android 14; 23049PCD8G) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1",
}

// StatusError is a non-2xx HTTP response. Gateway-class statuses unwrap to
// domain.ErrTransient.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	if IsTransientStatus(e.StatusCode) {
		return domain.ErrTransient
	}
	return nil
}

func IsTransientStatus(code int) bool {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Client posts JSON to the growth API. The zero value uses the default
// base URL, http.DefaultClient and a 20s request timeout.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	UserAgents     []string
}

var _ ports.Transport = (*Client)(nil)

// NewHTTPClient builds an http.Client routed through proxyURL when it is
// set. http, https and socks5 proxies are supported.
func NewHTTPClient(proxyURL string) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL = strings.TrimSpace(proxyURL); proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		switch parsed.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
		}
		transport.Proxy = http.ProxyURL(parsed)
	}

	return &http.Client{Transport: transport}, nil
}

func (c *Client) Send(ctx context.Context, endpoint ports.Endpoint, token string, body any) (ports.Envelope, error) {
	target, err := buildAPIURL(c.baseURL(), string(endpoint))
	if err != nil {
		return ports.Envelope{}, err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return ports.Envelope{}, fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return ports.Envelope{}, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return ports.Envelope{}, fmt.Errorf("send %s request: %w: %w", endpoint, domain.ErrTransient, err)
		}
		return ports.Envelope{}, fmt.Errorf("send %s request: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return ports.Envelope{}, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return ports.Envelope{}, fmt.Errorf("%s: %w", endpoint, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		})
	}

	var envelope ports.Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return ports.Envelope{}, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	envelope.Raw = raw

	return envelope, nil
}

func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", origin)
	req.Header.Set("Referer", referer)
	req.Header.Set("User-Agent", c.userAgent())
	if token != "" {
		req.Header.Set(tokenHeader, token)
	}
}

func (c *Client) userAgent() string {
	agents := c.UserAgents
	if len(agents) == 0 {
		agents = defaultUserAgents
	}
	return agents[rand.IntN(len(agents))]
}

func (c *Client) baseURL() string {
	if c.BaseURL == "" {
		return DefaultBaseURL
	}
	return c.BaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	endpoint, err := parsed.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}
