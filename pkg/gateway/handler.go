package gateway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/scope"
	"github.com/dmitrymomot/tenantbot/pkg/telegram"
)

// SecretHeader carries the shared secret set with setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Dispatcher handles one inbound update body for a resolved session.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *Session, body []byte) error
}

// Handler is the inbound webhook endpoint.
type Handler struct {
	gw         *Gateway
	dispatcher Dispatcher
	resolve    func(ctx context.Context, tenantID string) (*Session, error)
	pinned     bool
	tenantID   func(r *http.Request) string
	maxBody    int64
	background bool
	timeout    time.Duration
	retryAfter time.Duration
	log        *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

func WithHandlerLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = logger.OrDiscard(l) }
}

// WithTenantParam overrides how the tenant id is read from the request.
// The default reads the chi URL parameter "tenantID".
func WithTenantParam(fn func(r *http.Request) string) HandlerOption {
	return func(h *Handler) {
		if fn != nil {
			h.tenantID = fn
		}
	}
}

// WithFixedSession serves one pinned session instead of resolving tenants.
// The tenant id of every request is the session's.
func WithFixedSession(s *Session) HandlerOption {
	return func(h *Handler) {
		h.tenantID = func(*http.Request) string { return s.TenantID }
		h.resolve = func(context.Context, string) (*Session, error) { return s, nil }
		h.pinned = true
	}
}

func WithMaxBodyBytes(n int64) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithBackground acknowledges the update as soon as it is read and runs the
// dispatcher in a goroutine tracked by the gateway.
func WithBackground(enabled bool) HandlerOption {
	return func(h *Handler) { h.background = enabled }
}

func WithDispatchTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithRetryAfter(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.retryAfter = d
		}
	}
}

// WithHandlerConfig applies the webhook settings from cfg.
func WithHandlerConfig(cfg Config) HandlerOption {
	return func(h *Handler) {
		WithMaxBodyBytes(cfg.MaxBodyBytes)(h)
		WithBackground(cfg.BackgroundDispatch)(h)
		WithDispatchTimeout(cfg.DispatchTimeout)(h)
		WithRetryAfter(cfg.RetryAfter)(h)
	}
}

func NewHandler(gw *Gateway, dispatcher Dispatcher, opts ...HandlerOption) *Handler {
	h := &Handler{
		gw:         gw,
		dispatcher: dispatcher,
		tenantID:   func(r *http.Request) string { return chi.URLParam(r, "tenantID") },
		maxBody:    DefaultMaxBodyBytes,
		timeout:    DefaultDispatchTimeout,
		retryAfter: DefaultRetryAfter,
		log:        logger.Discard(),
	}
	h.resolve = gw.Resolve
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tenantID := h.tenantID(r)
	if tenantID == "" {
		http.NotFound(w, r)
		return
	}
	ctx := scope.WithTenantID(r.Context(), tenantID)

	session, err := h.resolve(ctx, tenantID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	if !h.gw.VerifySecret(session, r.Header.Get(SecretHeader)) {
		h.log.WarnContext(ctx, "webhook secret mismatch")
		h.writeError(ctx, w, ErrUnauthorized)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if !h.background {
		h.dispatch(ctx, session, body)
		w.WriteHeader(http.StatusOK)
		return
	}

	detached := scope.Detach(ctx)
	if !h.gw.Go(func() { h.dispatch(detached, session, body) }) {
		h.writeError(ctx, w, ErrGatewayClosed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) dispatch(ctx context.Context, s *Session, body []byte) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	err := h.dispatcher.Dispatch(ctx, s, body)
	if err == nil {
		return
	}
	h.log.ErrorContext(ctx, "dispatch failed", logger.Error(err))

	// The Bot API rejected the token: drop it so the next update reads the
	// secret store again.
	if errors.Is(err, telegram.ErrUnauthorized) && !h.pinned {
		h.gw.InvalidateTenant(ctx, s.TenantID)
	}
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
	default:
		h.log.ErrorContext(ctx, "tenant resolution failed", logger.Error(err))
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(h.retryAfter)))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	}
}

// retryAfterSeconds rounds d up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	return max(secs, 1)
}
