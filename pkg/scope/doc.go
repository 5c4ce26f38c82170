// Package scope carries per-request identity (tenant, request and chat user
// identifiers) on a context.Context.
//
// Values are bound at request entry by middleware and are visible to all code
// that receives the request context, including goroutines started for the
// request. Because context values are immutable, a binding never leaks into
// the parent context: when the request completes, callers holding the parent
// still observe what they observed before, which keeps interleaved requests on
// shared goroutines from seeing each other's identity.
//
// Readers return (value, ok); an unbound identifier is reported as ok == false
// and is never confused with an empty or zero identifier.
//
//	r := chi.NewRouter()
//	r.Use(scope.RequestIDMiddleware)
//	r.With(scope.TenantMiddleware(func(r *http.Request) string {
//		return chi.URLParam(r, "tenantID")
//	})).Post("/webhook/{tenantID}", handler)
//
// TenantExtractor, RequestExtractor and UserExtractor plug the identifiers
// into pkg/logger so every record logged with a request context is
// attributable without manual correlation.
package scope
