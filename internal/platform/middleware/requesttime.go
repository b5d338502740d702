package middleware

import (
	"net/http"
	"time"

	"rollcall/pkg/requestcontext"
)

// RequestTime captures the current time at the start of the request so
// every operation within it observes the same "now". Attendance day
// boundaries in particular must not shift mid-request.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
