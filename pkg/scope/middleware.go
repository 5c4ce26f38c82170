package scope

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the canonical request correlation header.
	RequestIDHeader = "X-Request-ID"
	maxIDLength     = 128
)

var validIDRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// RequestIDMiddleware reuses a valid client supplied X-Request-ID or
// generates a new UUID, echoes it back and binds it to the request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if !isValidRequestID(requestID) {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), requestID)))
	})
}

// TenantMiddleware binds the tenant identifier returned by extract for the
// whole lifetime of the request. Requests without an identifier pass through
// unbound.
func TenantMiddleware(extract func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := extract(r)
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithTenantID(r.Context(), id)))
		})
	}
}

func isValidRequestID(id string) bool {
	if len(id) == 0 || len(id) > maxIDLength {
		return false
	}
	return validIDRegex.MatchString(id)
}
