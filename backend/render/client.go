// Package render turns Markdown into HTML through the GitHub markdown API.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultEndpoint  = "https://api.github.com/markdown"
	DefaultMode      = "gfm"
	DefaultUserAgent = "MarkdownViewerApp"
	DefaultTimeout   = 10 * time.Second
)

var log = logrus.WithField("component", "render")

// Options configures a Client. Zero values fall back to the defaults above.
type Options struct {
	Endpoint  string
	Mode      string
	UserAgent string
	Token     string
	Timeout   time.Duration
	// CacheTTL enables the in-memory result cache when positive.
	CacheTTL time.Duration
}

// Client posts Markdown to the render endpoint.
type Client struct {
	endpoint  string
	mode      string
	userAgent string
	token     string
	client    *http.Client
	cache     *resultCache
}

// NewClient creates a render client.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Mode == "" {
		opts.Mode = DefaultMode
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	c := &Client{
		endpoint:  opts.Endpoint,
		mode:      opts.Mode,
		userAgent: opts.UserAgent,
		token:     opts.Token,
		client:    &http.Client{Timeout: opts.Timeout},
	}
	if opts.CacheTTL > 0 {
		c.cache = newResultCache(opts.CacheTTL)
	}
	return c
}

// Render returns the HTML fragment for markdown. The response body is
// returned verbatim. Every failure is an *Error.
func (c *Client) Render(ctx context.Context, markdown string) (string, error) {
	if c.cache != nil {
		if html, ok := c.cache.get(c.mode, markdown); ok {
			log.WithField("bytes", len(markdown)).Debug("render cache hit")
			return html, nil
		}
	}

	html, err := c.post(ctx, markdown)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.set(c.mode, markdown, html)
	}
	return html, nil
}

func (c *Client) post(ctx context.Context, markdown string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(requestBody(markdown, c.mode)))
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: fmt.Sprintf("failed to create request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &Error{Kind: KindConnectivity, Message: requestFailure(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("render response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// GitHub explains rate limiting and validation failures in the body
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := resp.Status
		if d := strings.TrimSpace(string(detail)); d != "" {
			msg = resp.Status + ": " + d
		}
		return "", &Error{Kind: KindServer, Message: msg, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindUnknown, Message: fmt.Sprintf("failed to read response: %v", err), Err: err}
	}
	return string(body), nil
}

func requestFailure(ctx context.Context, err error) string {
	if errors.Is(ctx.Err(), context.Canceled) {
		return "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "request timed out"
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return "request timed out"
	}
	return fmt.Sprintf("request failed: %v", err)
}
