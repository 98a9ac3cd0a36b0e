// Package client talks to the registry REST API: the person search endpoint,
// single record lookups and issue reports.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/regsearch/pkg/config"
	"github.com/rubiojr/regsearch/pkg/core"
	"github.com/rubiojr/regsearch/pkg/log"
	"github.com/rubiojr/regsearch/pkg/version"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 32 << 20

var logger = log.ForService("client")

// Options configures a Client.
type Options struct {
	BaseURL           string
	Token             string
	Timeout           time.Duration
	RequestsPerSecond float64

	// HTTPClient replaces the default client (tests, custom transports).
	HTTPClient *http.Client
}

// Client is a registry API client. It is safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// New creates a client for the API rooted at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = config.DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	burst := 1
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
		burst = max(int(opts.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:    base,
		token:      opts.Token,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, burst),
		userAgent:  "regsearch/" + version.Version,
	}, nil
}

// NewFromConfig creates a client from the [api] configuration section.
func NewFromConfig(cfg config.APIConfig) (*Client, error) {
	return New(Options{
		BaseURL:           cfg.BaseURL,
		Token:             cfg.Token,
		Timeout:           cfg.Timeout.Duration,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}

// SearchRequest is a single person search.
type SearchRequest struct {
	Query string
	Page  int
	Limit int
}

// SearchResponse is the registry's answer to a person search.
type SearchResponse struct {
	Results    core.Records `json:"results"`
	Total      int          `json:"total"`
	TotalPages int          `json:"total_pages"`
}

// Search runs GET /search?query=&page=&limit=.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}

	u := c.baseURL.JoinPath("search")
	q := url.Values{}
	q.Set("query", req.Query)
	q.Set("page", strconv.Itoa(req.Page))
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	u.RawQuery = q.Encode()

	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", req.Query, err)
	}

	var resp SearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if resp.Results == nil {
		resp.Results = core.Records{}
	}
	return &resp, nil
}

// Detail runs GET /search/<source_type>/<id>.
func (c *Client) Detail(ctx context.Context, st core.SourceType, id core.ID) (*core.Detail, error) {
	u, err := c.recordURL(st, id)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("loading %s/%s: %w", st, id, err)
	}

	detail, err := core.DecodeDetail(st, body)
	if err != nil {
		return nil, fmt.Errorf("loading %s/%s: %w", st, id, err)
	}
	return detail, nil
}

// Report runs POST /search/<source_type>/<id>/report with the user's
// description of what is wrong with the record.
func (c *Client) Report(ctx context.Context, st core.SourceType, id core.ID, message string) error {
	u, err := c.recordURL(st, id, "report")
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if _, err := c.do(ctx, http.MethodPost, u, payload); err != nil {
		return fmt.Errorf("reporting %s/%s: %w", st, id, err)
	}
	return nil
}

// recordURL builds <base>/search/<source_type>/<id>[/elem...]. Each segment
// is escaped so an id can never leave the record's path.
func (c *Client) recordURL(st core.SourceType, id core.ID, elem ...string) (*url.URL, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if s := string(st); s == "" || s == "." || s == ".." {
		return nil, fmt.Errorf("invalid source type %q", s)
	}
	segs := append([]string{"search", url.PathEscape(string(st)), url.PathEscape(string(id))}, elem...)
	return c.baseURL.JoinPath(segs...), nil
}

func (c *Client) do(ctx context.Context, method string, u *url.URL, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	logger.Debugf("%s %s -> %d (%s, %d bytes)", method, u.Redacted(), resp.StatusCode, time.Since(start).Round(time.Millisecond), len(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: body}
	}
	return body, nil
}
