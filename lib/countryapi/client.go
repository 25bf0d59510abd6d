// Package countryapi is the HTTP client for the country/state service.
//
// The client issues two read-only calls, normalizes every failure into a
// *geoform.FetchError and never retries; retrying is the caller's decision.
// A Client holds only immutable configuration and is safe for concurrent use.
package countryapi

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pthm/geoform"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// APIKeyHeader carries the static API key on every request.
const APIKeyHeader = "X-API-Key"

const maxBodyBytes = 4 << 20

// Observer receives one call per completed upstream request. Status is 0
// when no response was received.
type Observer interface {
	RequestDone(op string, status int, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) RequestDone(string, int, time.Duration, error) {}

// Client talks to the country API.
type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
	log      logrus.FieldLogger
	observer Observer
	policy   *bluemonday.Policy
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// Callers wait for a token; a cancelled context aborts the wait.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithObserver attaches a request observer, typically the metrics recorder.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// New creates a client for baseURL authenticating with apiKey.
func New(baseURL, apiKey string, opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      discard,
		observer: nopObserver{},
		policy:   bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListCountries fetches every country.
func (c *Client) ListCountries(ctx context.Context) ([]geoform.Option, error) {
	return c.list(ctx, "countries", "/countries")
}

// ListStates fetches the states of countryID. A non-positive id fails with
// an invalid argument error before any request is made.
func (c *Client) ListStates(ctx context.Context, countryID int) ([]geoform.Option, error) {
	if countryID <= 0 {
		return nil, geoform.InvalidArgument("Valid country ID is required")
	}
	return c.list(ctx, "states", "/countries/"+strconv.Itoa(countryID)+"/states")
}

type wireOption struct {
	ID    int    `json:"id"`
	Value string `json:"value"`
}

func (c *Client) list(ctx context.Context, op, path string) ([]geoform.Option, error) {
	start := time.Now()
	log := c.log.WithFields(logrus.Fields{"op": op, "path": path})

	status, body, err := c.get(ctx, path)
	c.observer.RequestDone(op, status, time.Since(start), err)
	if err != nil {
		log.WithError(err).WithField("status", status).Debug("country api request failed")
		return nil, &geoform.FetchError{Op: op, Status: status, Err: err}
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
		err := fmt.Errorf("Invalid response: expected an array of %s", op)
		log.WithField("status", status).Debug("country api returned a non-array body")
		return nil, &geoform.FetchError{Op: op, Status: status, Err: err}
	}

	var wire []wireOption
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &geoform.FetchError{Op: op, Status: status, Err: fmt.Errorf("Invalid response: %w", err)}
	}

	out := make([]geoform.Option, 0, len(wire))
	for _, w := range wire {
		opt := geoform.Option{ID: w.ID, Label: c.plain(w.Value)}
		if opt.Valid() {
			out = append(out, opt)
		}
	}
	log.WithField("count", len(out)).Debug("country api request done")
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return resp.StatusCode, nil, fmt.Errorf("HTTP Error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// plain strips markup from a label and trims it.
func (c *Client) plain(s string) string {
	return strings.TrimSpace(html.UnescapeString(c.policy.Sanitize(s)))
}
