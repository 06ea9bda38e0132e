// Package client talks to the marketplace messages API for one or more
// resource-request conversations.
package client

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

	"go.uber.org/zap"

	"github.com/benchmarket/benchchat/internal/model/chat"
)

// Transport is the set of message operations the chat overlay depends on.
type Transport interface {
	ListPage(ctx context.Context, requestID string, offset, pageSize int) (chat.Page, error)
	Send(ctx context.Context, requestID, text string) (chat.Message, error)
	UnreadCount(ctx context.Context, requestID string) (int, error)
	MarkAllRead(ctx context.Context, requestID string) error
}

// Client is the HTTP implementation of Transport.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a client for the API rooted at baseURL, authenticating with
// the bearer token.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListPage returns pageSize messages counted back from the newest, skipping
// offset, in chronological order.
func (c *Client) ListPage(ctx context.Context, requestID string, offset, pageSize int) (chat.Page, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("offset", strconv.Itoa(offset))

	var page chat.Page
	if err := c.do(ctx, "list messages", http.MethodGet, messagesPath(requestID), q, nil, &page); err != nil {
		return chat.Page{}, err
	}
	if page.Results == nil {
		page.Results = []chat.Message{}
	}
	return page, nil
}

// Send posts text to the conversation. Whitespace-only text fails with
// ErrValidation before any request is made.
func (c *Client) Send(ctx context.Context, requestID, text string) (chat.Message, error) {
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, ErrValidation
	}

	body := struct {
		Message string `json:"message"`
	}{Message: text}

	var msg chat.Message
	if err := c.do(ctx, "send message", http.MethodPost, messagesPath(requestID), nil, body, &msg); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// UnreadCount returns the caller's unread messages in the conversation.
func (c *Client) UnreadCount(ctx context.Context, requestID string) (int, error) {
	var out struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := c.do(ctx, "unread count", http.MethodGet, messagesPath(requestID)+"/unread-count", nil, nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// MarkAllRead marks the conversation read for the caller. It is idempotent.
func (c *Client) MarkAllRead(ctx context.Context, requestID string) error {
	return c.do(ctx, "mark read", http.MethodPost, messagesPath(requestID)+"/mark-read", nil, nil, nil)
}

func messagesPath(requestID string) string {
	return "/api/resource-requests/" + url.PathEscape(requestID) + "/messages"
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawPath = ""
	if q != nil {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, op, method, path string, q url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, q), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Op: op, Status: resp.StatusCode, Message: readError(resp.Body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return &NetworkError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func readError(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}
