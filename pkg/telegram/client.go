package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultBaseURL = "https://api.telegram.org"
	maxResponse    = 1 << 20
	maxRetryAfter  = 30 * time.Second
)

// Client calls the Bot API on behalf of one bot token. It is safe for
// concurrent use. After Close every call fails with ErrClientClosed.
type Client struct {
	token      string
	baseURL    string
	http       *http.Client
	backoff    Backoff
	maxRetries int
	parseMode  string
	closed     atomic.Bool
}

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient shares an http.Client, and with it a connection pool,
// between clients.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithBackoff(b Backoff) Option {
	return func(c *Client) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithMaxRetries sets how many times a 429, 5xx or network failure is
// retried. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = max(n, 0) }
}

// WithParseMode sets the default parse_mode of outgoing messages.
func WithParseMode(mode string) Option {
	return func(c *Client) { c.parseMode = mode }
}

// New returns a client for token.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		backoff:    DefaultBackoff(),
		maxRetries: 2,
		parseMode:  "HTML",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	return c
}

// Token returns the bot token the client is bound to.
func (c *Client) Token() string { return c.token }

// Close releases the client. Connections of a shared http.Client stay open
// for its other users.
func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *Client) GetMe(ctx context.Context) (User, error) {
	var u User
	err := c.call(ctx, "getMe", nil, &u)
	return u, err
}

// SendOption adjusts a sendMessage request.
type SendOption func(map[string]any)

// WithReplyTo makes the message a reply.
func WithReplyTo(messageID int64) SendOption {
	return func(p map[string]any) {
		p["reply_parameters"] = map[string]any{"message_id": messageID}
	}
}

// WithReplyMarkup attaches a keyboard, given as its JSON object.
func WithReplyMarkup(markup any) SendOption {
	return func(p map[string]any) { p["reply_markup"] = markup }
}

// WithoutPreview disables link previews.
func WithoutPreview() SendOption {
	return func(p map[string]any) {
		p["link_preview_options"] = map[string]any{"is_disabled": true}
	}
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts ...SendOption) (Message, error) {
	params := map[string]any{"chat_id": chatID, "text": text}
	if c.parseMode != "" {
		params["parse_mode"] = c.parseMode
	}
	for _, opt := range opts {
		opt(params)
	}
	var m Message
	err := c.call(ctx, "sendMessage", params, &m)
	return m, err
}

func (c *Client) CopyMessage(ctx context.Context, chatID, fromChatID, messageID int64) (MessageID, error) {
	var id MessageID
	err := c.call(ctx, "copyMessage", map[string]any{
		"chat_id":      chatID,
		"from_chat_id": fromChatID,
		"message_id":   messageID,
	}, &id)
	return id, err
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (ChatMember, error) {
	var m ChatMember
	err := c.call(ctx, "getChatMember", map[string]any{"chat_id": chatID, "user_id": userID}, &m)
	return m, err
}

func (c *Client) SetWebhook(ctx context.Context, cfg WebhookConfig) error {
	return c.call(ctx, "setWebhook", cfg, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.call(ctx, "deleteWebhook", map[string]any{"drop_pending_updates": dropPending}, nil)
}

// call posts params as JSON to method and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	if c.closed.Load() {
		return ErrClientClosed
	}

	var payload []byte
	if params != nil {
		var err error
		if payload, err = json.Marshal(params); err != nil {
			return fmt.Errorf("telegram: %s: encode: %w", method, err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff.NextInterval(attempt)
			var apiErr *APIError
			if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
				delay = min(apiErr.RetryAfter, maxRetryAfter)
			}
			select {
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			case <-time.After(delay):
			}
		}

		raw, err := c.do(ctx, method, payload)
		if err == nil {
			if out != nil && len(raw) > 0 {
				if err := json.Unmarshal(raw, out); err != nil {
					return fmt.Errorf("telegram: %s: decode result: %w", method, err)
				}
			}
			return nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, method string, payload []byte) (json.RawMessage, error) {
	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("telegram: %s: %w", method, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The URL carries the token; keep it out of the error text.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, errors.Join(ErrTemporaryFailure, fmt.Errorf("telegram: %s: %w", method, err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponse))
	if err != nil {
		return nil, errors.Join(ErrTemporaryFailure, fmt.Errorf("telegram: %s: read: %w", method, err))
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &APIError{Method: method, Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	if !envelope.OK {
		apiErr := &APIError{Method: method, Code: envelope.ErrorCode, Description: envelope.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Parameters.RetryAfter) * time.Second
		}
		return nil, apiErr
	}
	return envelope.Result, nil
}
