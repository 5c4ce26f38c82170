package scope_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantbot/pkg/scope"
)

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates id when missing", func(t *testing.T) {
		t.Parallel()
		var seen string
		h := scope.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = scope.RequestID(r.Context())
		}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		require.NotEmpty(t, seen)
		assert.Equal(t, seen, rec.Header().Get(scope.RequestIDHeader))
	})

	t.Run("reuses valid id", func(t *testing.T) {
		t.Parallel()
		var seen string
		h := scope.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen, _ = scope.RequestID(r.Context())
		}))
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(scope.RequestIDHeader, "abc-123_x")
		h.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, "abc-123_x", seen)
	})

	t.Run("replaces invalid id", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"with space", "a/b", "<script>", string(make([]byte, 200))} {
			var seen string
			h := scope.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = scope.RequestID(r.Context())
			}))
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set(scope.RequestIDHeader, bad)
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.NotEqual(t, bad, seen)
			assert.NotEmpty(t, seen)
		}
	})
}

func TestTenantMiddleware(t *testing.T) {
	t.Parallel()
	extract := func(r *http.Request) string { return r.URL.Query().Get("tenant") }

	t.Run("binds tenant", func(t *testing.T) {
		t.Parallel()
		var (
			id string
			ok bool
		)
		h := scope.TenantMiddleware(extract)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok = scope.TenantID(r.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/?tenant=t-001", nil))
		assert.True(t, ok)
		assert.Equal(t, "t-001", id)
	})

	t.Run("leaves context unbound without identifier", func(t *testing.T) {
		t.Parallel()
		ok := true
		h := scope.TenantMiddleware(extract)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, ok = scope.TenantID(r.Context())
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
		assert.False(t, ok)
	})
}
