// Package middleware provides the HTTP middleware chain: request id,
// request-scoped time, panic recovery, access logging and JWT auth.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"rollcall/pkg/requestcontext"
)

// RequestIDHeader is echoed back so clients can correlate responses
// with server logs.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a unique id, honoring one supplied by
// a trusted upstream proxy.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
