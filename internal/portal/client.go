// Package portal submits login and logout forms to a captive-portal
// httpclient.html handler and extracts the status message from its XML reply.
package portal

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/zarlcorp/zgate/internal/credential"
	"golang.org/x/net/html/charset"
)

// Mode selects the portal action.
type Mode string

const (
	ModeLogin  Mode = "191"
	ModeLogout Mode = "193"
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeLogout:
		return "logout"
	}
	return "mode " + string(m)
}

const (
	defaultTimeout = 10 * time.Second
	// maxBody caps how much of a response is read; portal replies are tiny.
	maxBody = 1 << 20
)

// Config holds the portal location and per-request timeout.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Outcome is the resolved result of one submission: either a message from the
// portal or the transport error that prevented one.
type Outcome struct {
	Message string
	Err     error
}

// Ok reports whether the portal answered.
func (o Outcome) Ok() bool { return o.Err == nil }

// Client talks to a single portal endpoint.
type Client struct {
	endpoint  string
	http      *http.Client
	now       func() time.Time
	userAgent string
}

// NewClient creates a portal client. A zero timeout uses 10 seconds.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint:  cfg.Endpoint,
		http:      &http.Client{Timeout: timeout},
		now:       time.Now,
		userAgent: "zgate",
	}
}

// SetUserAgent overrides the User-Agent header sent with each request.
func (c *Client) SetUserAgent(ua string) {
	c.userAgent = ua
}

// Submit posts one form for cred and returns the portal's message. It never
// panics and never returns a nil Outcome; failures are carried in Outcome.Err.
func (c *Client) Submit(ctx context.Context, mode Mode, cred credential.Credential) Outcome {
	body, err := c.do(ctx, formValues(mode, cred, c.now()))
	if err != nil {
		return Outcome{Err: fmt.Errorf("%s %s: %w", mode, cred.Username, err)}
	}

	return Outcome{Message: ParseMessage(body)}
}

// Endpoint returns the URL requests are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

func formValues(mode Mode, cred credential.Credential, now time.Time) url.Values {
	return url.Values{
		"mode":     {string(mode)},
		"username": {cred.Username},
		"password": {cred.Password},
		"a":        {Nonce(now)},
	}
}

// Nonce returns the cache-busting "a" field: epoch milliseconds in decimal.
func Nonce(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

func (c *Client) do(ctx context.Context, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return body, nil
}

// ParseMessage returns the trimmed text of the root element's <message>
// child. Malformed XML or a missing element yields "". Non-UTF-8 documents
// are decoded according to their XML declaration.
func ParseMessage(body []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel

	var resp response
	if err := dec.Decode(&resp); err != nil {
		return ""
	}
	return strings.TrimSpace(resp.Message)
}

// xml response types

// response matches any root element; only <message> is consulted.
type response struct {
	Message string `xml:"message"`
}
