package bots

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tenantbot/handler"
	"github.com/dmitrymomot/tenantbot/pkg/binder"
	"github.com/dmitrymomot/tenantbot/pkg/logger"
	"github.com/dmitrymomot/tenantbot/pkg/scope"
)

// AdminKeyHeader authenticates calls to the bot admin API.
const AdminKeyHeader = "X-Admin-Key"

type onboardRequest struct {
	OwnerID int64  `path:"ownerID" json:"-"`
	Token   string `json:"token"`
}

type listRequest struct {
	OwnerID int64 `path:"ownerID"`
}

type removeRequest struct {
	TenantID string `path:"tenantID"`
}

// Router mounts the admin API:
//
//	POST   /owners/{ownerID}/bots   onboard {"token": "..."}
//	GET    /owners/{ownerID}/bots   list with health
//	DELETE /bots/{tenantID}         remove
//
// Every route requires the X-Admin-Key header to equal key. An empty key
// rejects every call.
func Router(svc *Service, key string, log *slog.Logger) chi.Router {
	log = logger.OrDiscard(log).With(logger.Component("bots_api"))
	errHandler := handler.NewErrorHandler(log)
	fail := func(ctx handler.Context, err error) handler.Response {
		log.WarnContext(ctx, "admin request failed", logger.Error(err))
		return handler.JSONError(httpError(err))
	}

	r := chi.NewRouter()
	r.Use(RequireAdminKey(key))

	r.Post("/owners/{ownerID}/bots", handler.Wrap(
		func(ctx handler.Context, req onboardRequest) handler.Response {
			info, err := svc.Onboard(ctx, req.OwnerID, req.Token)
			if err != nil {
				return fail(ctx, err)
			}
			return handler.JSON(info, handler.WithJSONStatus(http.StatusCreated))
		},
		handler.WithBinders[handler.Context, onboardRequest](binder.Path(binder.ChiParam), binder.JSON()),
		handler.WithErrorHandler[handler.Context, onboardRequest](errHandler),
	))

	r.Get("/owners/{ownerID}/bots", handler.Wrap(
		func(ctx handler.Context, req listRequest) handler.Response {
			infos, err := svc.List(ctx, req.OwnerID)
			if err != nil {
				return fail(ctx, err)
			}
			return handler.JSON(infos, handler.WithJSONMeta(map[string]any{"count": len(infos)}))
		},
		handler.WithBinders[handler.Context, listRequest](binder.Path(binder.ChiParam)),
		handler.WithErrorHandler[handler.Context, listRequest](errHandler),
	))

	bindTenant := scope.TenantMiddleware(func(r *http.Request) string { return chi.URLParam(r, "tenantID") })
	r.With(bindTenant).Delete("/bots/{tenantID}", handler.Wrap(
		func(ctx handler.Context, req removeRequest) handler.Response {
			if err := svc.Remove(ctx, req.TenantID); err != nil {
				return fail(ctx, err)
			}
			return handler.Empty()
		},
		handler.WithBinders[handler.Context, removeRequest](binder.Path(binder.ChiParam)),
		handler.WithErrorHandler[handler.Context, removeRequest](errHandler),
	))

	return r
}

// RequireAdminKey rejects requests whose X-Admin-Key differs from key.
func RequireAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(AdminKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(got)) != 1 {
				_ = handler.JSONError(handler.ErrUnauthorized).Render(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_token")
	case errors.Is(err, ErrInvalidOwner):
		return handler.NewHTTPError(http.StatusUnprocessableEntity, "invalid_owner")
	case errors.Is(err, ErrAlreadyExists):
		return handler.NewHTTPError(http.StatusConflict, "already_exists")
	case errors.Is(err, ErrNotFound):
		return handler.ErrNotFound
	case errors.Is(err, ErrBotAPIUnavailable), errors.Is(err, ErrWebhookSetup):
		return handler.ErrBadGateway
	case errors.Is(err, ErrStorage):
		return handler.ErrServiceUnavailable
	}
	return err
}
