package notion

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

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 8 << 20
)

var _ Client = (*HTTPClient)(nil)

// HTTPClient talks to the Notion REST API. The integration token is sent as
// an OAuth2 bearer token.
type HTTPClient struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     zerolog.Logger
}

type Option func(*HTTPClient)

func WithBaseURL(u string) Option {
	return func(c *HTTPClient) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *HTTPClient) { c.log = l.With().Str("component", "notion").Logger() }
}

func NewHTTPClient(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		http:    http.DefaultClient,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) QueryDatabase(ctx context.Context, creds Credentials, req QueryRequest) (QueryResponse, error) {
	var out QueryResponse
	path := "/databases/" + url.PathEscape(strings.TrimSpace(creds.DatabaseID)) + "/query"
	err := c.do(ctx, creds, http.MethodPost, path, nil, req, &out)
	return out, err
}

func (c *HTTPClient) UpdatePage(ctx context.Context, creds Credentials, pageID string, req PageUpdate) (Page, error) {
	var out Page
	err := c.do(ctx, creds, http.MethodPatch, "/pages/"+url.PathEscape(pageID), nil, req, &out)
	return out, err
}

func (c *HTTPClient) BlockChildren(ctx context.Context, creds Credentials, blockID string, pageSize int, cursor string) (BlockChildren, error) {
	q := url.Values{}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if cursor != "" {
		q.Set("start_cursor", cursor)
	}
	id := strings.ReplaceAll(blockID, "-", "")

	var out BlockChildren
	err := c.do(ctx, creds, http.MethodGet, "/blocks/"+url.PathEscape(id)+"/children", q, nil, &out)
	return out, err
}

func (c *HTTPClient) do(ctx context.Context, creds Credentials, method, path string, query url.Values, body, out any) error {
	if !creds.Usable() {
		return ErrMissingCredentials
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Notion-Version", creds.version())
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.client(ctx, creds).Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return &TransportError{Op: "read " + path, Err: err}
	}
	if len(data) > maxResponseBytes {
		return fmt.Errorf("%w: %s %s exceeds %d bytes", ErrResponseTooLarge, method, path, maxResponseBytes)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("notion request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

func (c *HTTPClient) client(ctx context.Context, creds Credentials) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: strings.TrimSpace(creds.Token),
		TokenType:   "Bearer",
	})
	return oauth2.NewClient(ctx, src)
}
