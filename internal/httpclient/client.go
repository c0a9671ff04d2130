// Package httpclient is the GET-only upstream client shared by the loaders and the chart prober.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Response is the raw result of an upstream request.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// DecodeJSON unmarshals the body into out.
func (r *Response) DecodeJSON(out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Getter fetches a URL once.
type Getter interface {
	Get(ctx context.Context, url string) (*Response, error)
}

// Config holds client settings.
type Config struct {
	Timeout time.Duration
	// MaxRequestsPerSecond throttles outgoing requests; zero disables throttling.
	MaxRequestsPerSecond float64
	UserAgent            string
}

// Client implements Getter on top of resty.
type Client struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// New creates a client. Retries are disabled: every call is a single attempt.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "chartdesk/1.0"
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent)

	var limiter *rate.Limiter
	if cfg.MaxRequestsPerSecond > 0 {
		burst := int(cfg.MaxRequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), burst)
	}

	return &Client{client: client, limiter: limiter}
}

// Get issues a single GET request. A non-2xx status is not an error here;
// callers inspect Response.StatusCode.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
	}, nil
}
