package coffee

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"menubar/internal/credential"
	"menubar/internal/fetch"
)

// DefaultTimeout bounds every request when Options.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// ErrStatusCode is returned when the API answers with a non-2xx status.
var ErrStatusCode = errors.New("unhandled status code")

// ErrInvalidBagKey is returned for a bag key that cannot name a path segment.
var ErrInvalidBagKey = errors.New("invalid bag key")

// StatusError carries a non-2xx response.
type StatusError struct {
	Code int
	// Detail is the "detail" member of the error body, if any.
	Detail string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code: %d", e.Code)
}

func (e *StatusError) Unwrap() error { return ErrStatusCode }

// Options configures a Client.
type Options struct {
	// BaseURL is the root of the API, e.g. https://a7a9ck.deta.dev/.
	BaseURL string
	Timeout time.Duration
	// HTTPClient defaults to a new http.Client.
	HTTPClient *http.Client
	// Password supplies the write password as the token's AccessToken.
	Password oauth2.TokenSource
}

// Client talks to the Coffee Tracker API.
type Client struct {
	base     *url.URL
	timeout  time.Duration
	http     *http.Client
	password oauth2.TokenSource
}

// NewClient creates a client for the API at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	raw := opts.BaseURL
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("coffee: base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("coffee: base url %q is not absolute", opts.BaseURL)
	}
	c := &Client{
		base:     base,
		timeout:  opts.Timeout,
		http:     opts.HTTPClient,
		password: opts.Password,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// ActiveBags fetches the bags currently in use.
func (c *Client) ActiveBags(ctx context.Context) fetch.Result[Bag] {
	body, err := c.do(ctx, "active_bags", http.MethodGet, "active_bags/", nil, nil)
	if err != nil {
		return fetch.Fail[Bag](err)
	}
	bags, err := decodeBags(body)
	if err != nil {
		return fetch.Fail[Bag](err)
	}
	return fetch.Ok(bags)
}

// Uses fetches at most n uses logged since the given time.
func (c *Client) Uses(ctx context.Context, since time.Time, n int) fetch.Result[Use] {
	q := url.Values{}
	q.Set("n_last", strconv.Itoa(n))
	q.Set("since", since.Format(DateTimeLayout))
	body, err := c.do(ctx, "uses", http.MethodGet, "uses/", q, nil)
	if err != nil {
		return fetch.Fail[Use](err)
	}
	uses, err := decodeUses(body)
	if err != nil {
		return fetch.Fail[Use](err)
	}
	return fetch.Ok(uses)
}

// CupsSince returns the number of uses logged since the given time.
func (c *Client) CupsSince(ctx context.Context, since time.Time) (int, error) {
	q := url.Values{}
	q.Set("since", since.Format(DateTimeLayout))
	body, err := c.do(ctx, "number_of_uses", http.MethodGet, "number_of_uses/", q, nil)
	if err != nil {
		return 0, err
	}
	var n int
	if err := json.Unmarshal(body, &n); err != nil {
		return 0, &fetch.DecodeError{Record: "number_of_uses", Err: fmt.Errorf("%w: %v", fetch.ErrInvalidField, err)}
	}
	return n, nil
}

// NewUse logs a cup from the bag at the given time. It returns the response body.
func (c *Client) NewUse(ctx context.Context, bagKey string, when time.Time) ([]byte, error) {
	path, err := bagPath("new_use", bagKey)
	if err != nil {
		return nil, err
	}
	q, err := c.auth()
	if err != nil {
		return nil, err
	}
	q.Set("when", when.Format(DateTimeLayout))
	return c.do(ctx, "new_use", http.MethodPut, path, q, nil)
}

// Deactivate marks the bag finished on the given day.
func (c *Client) Deactivate(ctx context.Context, bagKey string, day time.Time) ([]byte, error) {
	path, err := bagPath("deactivate", bagKey)
	if err != nil {
		return nil, err
	}
	q, err := c.auth()
	if err != nil {
		return nil, err
	}
	q.Set("when", day.Format(DateLayout))
	return c.do(ctx, "deactivate", http.MethodPatch, path, q, nil)
}

// bagPath returns the escaped path of a per-bag endpoint. The key stays one
// segment, so a slash or dot-segment in it cannot reach another endpoint.
func bagPath(endpoint, bagKey string) (string, error) {
	switch bagKey {
	case "", ".", "..":
		return "", fmt.Errorf("%s: %w: %q", endpoint, ErrInvalidBagKey, bagKey)
	}
	return endpoint + "/" + url.PathEscape(bagKey), nil
}

// NewBag submits a new bag.
func (c *Client) NewBag(ctx context.Context, draft BagDraft) ([]byte, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	q, err := c.auth()
	if err != nil {
		return nil, err
	}
	return c.do(ctx, "new_bag", http.MethodPut, "new_bag/", q, draft)
}

// auth returns the query carrying the write password. A missing password
// fails before any request is made.
func (c *Client) auth() (url.Values, error) {
	if c.password == nil {
		return nil, fmt.Errorf("coffee: no password source: %w", credential.ErrNotFound)
	}
	tok, err := c.password.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("coffee: empty password: %w", credential.ErrNotFound)
	}
	q := url.Values{}
	q.Set("password", tok.AccessToken)
	return q, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// path is escaped; RawPath keeps escaped slashes through resolution
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u := c.base.ResolveReference(&url.URL{Path: unescaped, RawPath: path, RawQuery: q.Encode()})

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s, marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	log.WithFields(log.Fields{
		"op":     op,
		"method": method,
		"path":   path,
	}).Debug("Request")

	r, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, fetch.ErrTransport, err)
	}
	defer r.Body.Close()

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%s, read body: %w: %v", op, fetch.ErrTransport, err)
	}
	if r.StatusCode < 200 || r.StatusCode > 299 {
		log.WithFields(log.Fields{
			"op":   op,
			"code": r.StatusCode,
			"text": string(b),
		}).Warning("Unhandled response")
		return b, &StatusError{Code: r.StatusCode, Detail: errorDetail(b), Body: string(b)}
	}
	return b, nil
}

// errorDetail extracts the "detail" member of an error body. Validation errors
// carry a list there, which is returned as JSON text.
func errorDetail(body []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil || len(e.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	return string(e.Detail)
}
