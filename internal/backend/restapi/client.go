// Package restapi implements the service.Service interface against the
// tasks REST resource.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"taskdesk/internal/service"
	"taskdesk/internal/taskerr"
)

const (
	// ResourcePath is appended to the API base URL.
	ResourcePath = "/tasks"

	// RequestIDHeader carries a per-call identifier for server-side correlation.
	RequestIDHeader = "X-Request-Id"

	// DefaultUserAgent is sent when no other agent is configured.
	DefaultUserAgent = "taskdesk"
)

// Client implements service.Service over HTTP.
// It is stateless apart from its configuration and safe for concurrent use.
type Client struct {
	base      string
	http      *http.Client
	userAgent string
	metrics   *Metrics
	log       *slog.Logger

	tokenSource oauth2.TokenSource
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client (for testing).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTokenSource authenticates every request with a bearer token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.tokenSource = ts }
}

// WithToken authenticates every request with a fixed token.
func WithToken(tok *oauth2.Token) Option {
	return WithTokenSource(oauth2.StaticTokenSource(tok))
}

// WithMetrics records request counts and latencies.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the API rooted at baseURL.
func New(ctx context.Context, baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url: %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:      strings.TrimRight(u.String(), "/") + ResourcePath,
		http:      http.DefaultClient,
		userAgent: DefaultUserAgent,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.tokenSource != nil {
		// oauth2.NewClient wraps whatever client rides in the context.
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(ctx, c.tokenSource)
	}

	return c, nil
}

// List returns one page of tasks.
func (c *Client) List(ctx context.Context, opts service.ListOptions) (service.Page, error) {
	opts = opts.WithDefaults()

	q := url.Values{}
	q.Set("page", strconv.Itoa(opts.Page))
	q.Set("limit", strconv.Itoa(opts.Limit))
	f := opts.Filters
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Title != "" {
		q.Set("title", f.Title)
	}
	if f.DueDate != "" {
		q.Set("dueDate", f.DueDate)
	}

	var page service.Page
	if err := c.do(ctx, opList, http.MethodGet, "?"+q.Encode(), nil, &page); err != nil {
		return service.Page{}, err
	}
	if page.Data == nil {
		page.Data = []service.Task{}
	}
	return page, nil
}

// Create creates a task.
func (c *Client) Create(ctx context.Context, in service.TaskInput) (service.Task, error) {
	var env itemEnvelope
	if err := c.do(ctx, opCreate, http.MethodPost, "", in, &env); err != nil {
		return service.Task{}, err
	}
	return env.Data, nil
}

// Get returns a task by ID.
func (c *Client) Get(ctx context.Context, id string) (service.Task, error) {
	p, err := taskPath(id)
	if err != nil {
		return service.Task{}, err
	}
	var env itemEnvelope
	if err := c.do(ctx, opGet, http.MethodGet, p, nil, &env); err != nil {
		return service.Task{}, err
	}
	return env.Data, nil
}

// Update replaces the writable fields of a task.
func (c *Client) Update(ctx context.Context, id string, in service.TaskInput) (service.Task, error) {
	p, err := taskPath(id)
	if err != nil {
		return service.Task{}, err
	}
	var env itemEnvelope
	if err := c.do(ctx, opUpdate, http.MethodPut, p, in, &env); err != nil {
		return service.Task{}, err
	}
	return env.Data, nil
}

// Delete deletes a task.
func (c *Client) Delete(ctx context.Context, id string) error {
	p, err := taskPath(id)
	if err != nil {
		return err
	}
	var env json.RawMessage
	return c.do(ctx, opDelete, http.MethodDelete, p, nil, &env)
}

// SetDone marks a task as done.
func (c *Client) SetDone(ctx context.Context, id string) (service.Task, error) {
	return c.transition(ctx, opSetDone, id, "/done")
}

// SetPending marks a task as pending again.
func (c *Client) SetPending(ctx context.Context, id string) (service.Task, error) {
	return c.transition(ctx, opSetPending, id, "/pending")
}

func (c *Client) transition(ctx context.Context, op, id, suffix string) (service.Task, error) {
	p, err := taskPath(id)
	if err != nil {
		return service.Task{}, err
	}
	var env itemEnvelope
	if err := c.do(ctx, op, http.MethodPut, p+suffix, nil, &env); err != nil {
		return service.Task{}, err
	}
	return env.Data, nil
}

const (
	opList       = "list"
	opCreate     = "create"
	opGet        = "get"
	opUpdate     = "update"
	opDelete     = "delete"
	opSetDone    = "set_done"
	opSetPending = "set_pending"
)

type itemEnvelope struct {
	Data service.Task `json:"data"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// taskPath validates id and returns its escaped resource path.
// Validity beyond non-emptiness is the API's concern.
func taskPath(id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", &taskerr.ServiceError{
			Code:    taskerr.CodeInvalidID,
			Message: taskerr.CodeInvalidID.Message(),
		}
	}
	return "/" + url.PathEscape(id), nil
}

// do issues one request and decodes the response into out.
// There are no retries; ctx alone bounds the call.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(op, "error", start)
		c.log.Debug("api request failed", "op", op, "request_id", reqID, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	c.observe(op, strconv.Itoa(resp.StatusCode), start)
	c.log.Debug("api request",
		"op", op,
		"method", method,
		"status", resp.StatusCode,
		"request_id", reqID,
		"duration", time.Since(start))

	if op == opDelete && resp.StatusCode == http.StatusNoContent {
		return nil
	}

	dec := json.NewDecoder(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if err := dec.Decode(&env); err != nil {
			return &taskerr.ServiceError{
				Status:  resp.StatusCode,
				Message: taskerr.DefaultMessage,
			}
		}
		return taskerr.NewServiceError(resp.StatusCode, env.Error)
	}

	if err := dec.Decode(out); err != nil {
		if op == opDelete && errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) observe(op, code string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.Requests.WithLabelValues(op, code).Inc()
	c.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
