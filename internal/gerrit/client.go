// Package gerrit is a client for the subset of the Gerrit REST API the
// synchronization engine and patch queries depend on.
package gerrit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/osesov/gerrit-cli/internal/logging"
)

// Client is a Gerrit REST API client for one server.
type Client struct {
	baseURL    string
	username   string
	password   string
	cookieFile string

	cookieOnce sync.Once
	cookie     string

	httpClient *http.Client
}

// NewClient creates a client for the given server URL. Username and password
// enable authenticated (/a/) endpoints; both empty means anonymous access.
func NewClient(baseURL, username, password string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UseCookieFile configures cookie authentication from a Netscape-format
// cookie file such as ~/.gitcookies. The cookie is used only when no
// username is set on the client.
func (c *Client) UseCookieFile(path string) {
	c.cookieFile = path
}

// authCookie returns the cookies from the configured cookie file that
// match the server host, joined into a Cookie header value. An unreadable
// or non-matching file degrades to anonymous access.
func (c *Client) authCookie() string {
	c.cookieOnce.Do(func() {
		if c.cookieFile == "" {
			return
		}
		u, err := url.Parse(c.baseURL)
		if err != nil {
			return
		}
		data, err := os.ReadFile(c.cookieFile)
		if err != nil {
			logging.Debug("cookie file not readable", "path", c.cookieFile, "error", err)
			return
		}
		var pairs []string
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields := strings.Split(line, "\t")
			if len(fields) < 7 {
				continue
			}
			if !cookieDomainMatches(fields[0], u.Hostname()) {
				continue
			}
			pairs = append(pairs, fields[5]+"="+fields[6])
		}
		c.cookie = strings.Join(pairs, "; ")
	})
	return c.cookie
}

// cookieDomainMatches reports whether a cookie file domain entry covers
// the host. A leading dot covers the domain and its subdomains.
func cookieDomainMatches(domain, host string) bool {
	if domain == host {
		return true
	}
	if strings.HasPrefix(domain, ".") {
		return host == domain[1:] || strings.HasSuffix(host, domain)
	}
	return false
}

// ServerError is an application-level error response from the Gerrit server.
type ServerError struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *ServerError) Error() string {
	if e.StatusCode == http.StatusNotFound {
		return "change not found on Gerrit server"
	}
	msg := e.Status
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

// antiXSSIPrefix precedes every Gerrit JSON response body.
const antiXSSIPrefix = ")]}'"

// doRequest performs a request against a Gerrit endpoint. A nil body means
// GET; otherwise the body is sent as JSON with the given method. The
// response JSON (after the anti-XSSI line) is decoded into result when
// result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	endpoint := c.baseURL + c.apiPrefix() + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	} else if cookie := c.authCookie(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	logging.Debug("gerrit request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach Gerrit server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServerError{
			URL:        endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(respBody),
		}
	}

	if result != nil {
		payload := bytes.TrimPrefix(respBody, []byte(antiXSSIPrefix))
		if err := json.Unmarshal(bytes.TrimSpace(payload), result); err != nil {
			return fmt.Errorf("malformed JSON response from %s: %w", endpoint, err)
		}
	}
	return nil
}

// apiPrefix returns "/a" for authenticated access, which is required for
// non-public changes, and "" for anonymous access.
func (c *Client) apiPrefix() string {
	if c.username != "" || c.authCookie() != "" {
		return "/a"
	}
	return ""
}

// QueryChanges runs a change query. The query uses Gerrit search operators
// such as "change:I..." or "topic:name status:open". Extra options are
// passed as o= parameters ("LABELS", "CURRENT_REVISION", ...).
func (c *Client) QueryChanges(ctx context.Context, query string, options ...string) ([]*ChangeInfo, error) {
	v := url.Values{}
	v.Set("q", query)
	for _, o := range options {
		v.Add("o", o)
	}
	var changes []*ChangeInfo
	if err := c.doRequest(ctx, http.MethodGet, "/changes/?"+v.Encode(), nil, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetChange fetches one change by its identifier (number or Change-Id).
func (c *Client) GetChange(ctx context.Context, id string, options ...string) (*ChangeInfo, error) {
	path := "/changes/" + url.PathEscape(id)
	if len(options) > 0 {
		v := url.Values{}
		for _, o := range options {
			v.Add("o", o)
		}
		path += "?" + v.Encode()
	}
	var change ChangeInfo
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// Self returns the account the client is authenticated as.
func (c *Client) Self(ctx context.Context) (*AccountInfo, error) {
	var account AccountInfo
	if err := c.doRequest(ctx, http.MethodGet, "/accounts/self", nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// SetReview posts review labels and an optional message on a revision.
func (c *Client) SetReview(ctx context.Context, id, revision string, input *ReviewInput) error {
	if revision == "" {
		revision = "current"
	}
	path := fmt.Sprintf("/changes/%s/revisions/%s/review", url.PathEscape(id), url.PathEscape(revision))
	return c.doRequest(ctx, http.MethodPost, path, input, nil)
}

// SubmitChange submits a change, waiting for the merge to land.
func (c *Client) SubmitChange(ctx context.Context, id string) (*ChangeInfo, error) {
	path := "/changes/" + url.PathEscape(id) + "/submit"
	input := map[string]bool{"wait_for_merge": true}
	var change ChangeInfo
	if err := c.doRequest(ctx, http.MethodPost, path, input, &change); err != nil {
		return nil, err
	}
	return &change, nil
}

// AbandonChange abandons a change with an optional message.
func (c *Client) AbandonChange(ctx context.Context, id, message string) error {
	path := "/changes/" + url.PathEscape(id) + "/abandon"
	input := map[string]string{}
	if message != "" {
		input["message"] = message
	}
	return c.doRequest(ctx, http.MethodPost, path, input, nil)
}

// PublishDraft publishes a draft change.
func (c *Client) PublishDraft(ctx context.Context, id string) error {
	path := "/changes/" + url.PathEscape(id) + "/publish"
	return c.doRequest(ctx, http.MethodPost, path, struct{}{}, nil)
}

// AddReviewer assigns one reviewer to a change.
func (c *Client) AddReviewer(ctx context.Context, id, reviewer string) error {
	path := "/changes/" + url.PathEscape(id) + "/reviewers"
	input := map[string]string{"reviewer": reviewer}
	return c.doRequest(ctx, http.MethodPost, path, input, nil)
}
