// pkg/transport/httpx/client.go
package httpx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Header is one outbound header. Names are sent exactly as given (no canonicalization).
type Header struct {
	Name  string
	Value string
}

type Request struct {
	URL         string
	Method      string
	Headers     []Header
	Body        []byte
	ContentType string // applied only when Body is non-empty and no Content-Type header was given
}

type Reply struct {
	Status int
	Body   string
}

// Exchanger performs one outbound HTTP exchange. Non-2xx replies are not errors.
type Exchanger interface {
	Exchange(ctx context.Context, req Request) (Reply, error)
}

// HTTPDoer is satisfied by *http.Client and allows easy mocking in tests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

type Client struct {
	doer    HTTPDoer
	limiter *rate.Limiter
}

type ClientOption func(*Client)

// WithRateLimit caps outbound calls; excess callers wait for a slot.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(doer HTTPDoer, opts ...ClientOption) *Client {
	c := &Client{doer: doer}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewHTTPClient builds the default pooled client. A zero timeout means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:       10,
			IdleConnTimeout:    30 * time.Second,
			DisableCompression: false,
		},
		Timeout: timeout,
	}
}

func (c *Client) Exchange(ctx context.Context, in Request) (Reply, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Reply{}, err
		}
	}

	var body io.Reader = http.NoBody
	if len(in.Body) > 0 {
		body = bytes.NewReader(in.Body)
	}
	req, err := http.NewRequestWithContext(ctx, in.Method, in.URL, body)
	if err != nil {
		return Reply{}, err
	}
	for _, h := range in.Headers {
		req.Header[h.Name] = append(req.Header[h.Name], h.Value)
	}
	if len(in.Body) > 0 && in.ContentType != "" && !hasHeader(in.Headers, "Content-Type") {
		req.Header.Set("Content-Type", in.ContentType)
	}

	res, err := c.doer.Do(req)
	if err != nil {
		return Reply{}, err
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return Reply{}, err
	}
	return Reply{Status: res.StatusCode, Body: string(b)}, nil
}

func hasHeader(hs []Header, name string) bool {
	for _, h := range hs {
		if http.CanonicalHeaderKey(h.Name) == http.CanonicalHeaderKey(name) {
			return true
		}
	}
	return false
}
