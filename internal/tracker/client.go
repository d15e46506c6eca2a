package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

// API defines the tracker server operations pinpoint relies on.
// This interface is implemented by *Client and can be used for testing.
type API interface {
	FetchSummary(ctx context.Context) (Summary, error)
	FetchTableBody(ctx context.Context, page int) (string, error)
	SubmitReport(ctx context.Context, report Report) (ReportResult, error)
	Acknowledge(ctx context.Context) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the tracker HTTP API. A cookie jar keeps the server
// session so consent and acknowledgement apply to the same visitor.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServer    = "127.0.0.1:5000"
	defaultUserAgent = "pinpoint/0.1"
	requestTimeout   = 5 * time.Second
	maxBodyBytes     = 4 << 20
)

// NewClient builds a Client for the given server address. Bare host:port
// values are treated as http URLs.
func NewClient(server string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
			Jar:     jar,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// SetUserAgent overrides the User-Agent header sent with every request.
func (c *Client) SetUserAgent(ua string) {
	if ua = strings.TrimSpace(ua); ua != "" {
		c.userAgent = ua
	}
}

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchSummary retrieves the lightweight table summary.
func (c *Client) FetchSummary(ctx context.Context) (Summary, error) {
	var payload Summary
	if err := c.doJSON(ctx, http.MethodGet, &url.URL{Path: "/table-meta"}, nil, &payload); err != nil {
		return Summary{}, err
	}
	return payload, nil
}

// FetchTableBody retrieves the rendered rows for one page. Pages below 1
// are requested as page 1.
func (c *Client) FetchTableBody(ctx context.Context, page int) (string, error) {
	if page < 1 {
		page = 1
	}
	values := url.Values{}
	values.Set("page", strconv.Itoa(page))
	rel := &url.URL{Path: "/table-body", RawQuery: values.Encode()}

	resp, err := c.send(ctx, http.MethodGet, rel, nil, "text/html")
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}

// SubmitReport posts one position reading.
func (c *Client) SubmitReport(ctx context.Context, report Report) (ReportResult, error) {
	var result ReportResult
	if err := c.doJSON(ctx, http.MethodPost, &url.URL{Path: "/report"}, report, &result); err != nil {
		return ReportResult{}, err
	}
	return result, nil
}

// Acknowledge tells the server the client has seen the new data, clearing
// the session's wait flag. The response body is ignored.
func (c *Client) Acknowledge(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, &url.URL{Path: "/ack_new_data"}, nil, nil)
}

// Login performs the server's form login.
func (c *Client) Login(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, &url.URL{Path: "/login"}, nil, "text/html")
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// AllowLocation records consent in the session. The server answers by
// arming its wait-for-new flag with the current newest record.
func (c *Client) AllowLocation(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, &url.URL{Path: "/allow_location"}, nil, nil)
}

// FetchPageFlags loads the observer page and reads the gate activation
// attributes from its body element. Missing attributes leave the gate off.
func (c *Client) FetchPageFlags(ctx context.Context) (PageFlags, error) {
	resp, err := c.send(ctx, http.MethodGet, &url.URL{Path: "/"}, nil, "text/html")
	if err != nil {
		return PageFlags{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return PageFlags{}, fmt.Errorf("parse page: %w", err)
	}
	body := doc.Find("body").First()
	wait, _ := body.Attr("data-wait-for-new")
	base, _ := body.Attr("data-newest-base")
	return PageFlags{
		WaitForNew: strings.TrimSpace(wait) == "1",
		Baseline:   base,
	}, nil
}

// DeleteRecords soft-deletes the records with the given timestamps.
func (c *Client) DeleteRecords(ctx context.Context, timestamps []string) (DeleteResult, error) {
	if len(timestamps) == 0 {
		return DeleteResult{}, fmt.Errorf("no timestamps provided")
	}
	var result DeleteResult
	req := timestampsRequest{Timestamps: timestamps}
	if err := c.doJSON(ctx, http.MethodPost, &url.URL{Path: "/delete-records"}, req, &result); err != nil {
		return DeleteResult{}, err
	}
	return result, nil
}

// UndeleteRecords restores previously deleted records.
func (c *Client) UndeleteRecords(ctx context.Context, timestamps []string) (UndeleteResult, error) {
	if len(timestamps) == 0 {
		return UndeleteResult{}, fmt.Errorf("no timestamps provided")
	}
	var result UndeleteResult
	req := timestampsRequest{Timestamps: timestamps}
	if err := c.doJSON(ctx, http.MethodPost, &url.URL{Path: "/undelete-records"}, req, &result); err != nil {
		return UndeleteResult{}, err
	}
	return result, nil
}

// ClearDeleted empties the server's soft-delete archive. The server allows
// this once a minute per session; refusals come back as *RateLimitError.
func (c *Client) ClearDeleted(ctx context.Context) (ClearResult, error) {
	var result ClearResult
	if err := c.doJSON(ctx, http.MethodPost, &url.URL{Path: "/clear-deleted"}, nil, &result); err != nil {
		return ClearResult{}, err
	}
	return result, nil
}

func (c *Client) doJSON(ctx context.Context, method string, rel *url.URL, payload, dest any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	resp, err := c.send(ctx, method, rel, body, "application/json")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send executes the request and returns the open response for statuses
// below 400. The caller closes the body.
func (c *Client) send(ctx context.Context, method string, rel *url.URL, body io.Reader, accept string) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Cache-Control", "no-store")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		defer func() { _ = resp.Body.Close() }()
		var limited rateLimitResponse
		_ = json.NewDecoder(resp.Body).Decode(&limited)
		return nil, &RateLimitError{Path: rel.Path, RetryAfter: time.Duration(limited.RetryAfter) * time.Second}
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("api %s returned status %d", rel.Path, resp.StatusCode)
	}
	return resp, nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse server %q: missing host", server)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
