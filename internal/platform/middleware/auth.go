package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"rollcall/internal/jwttoken"
	"rollcall/internal/scope"
	"rollcall/pkg/requestcontext"
)

// TokenValidator verifies a raw bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// TokenRevocationChecker reports whether a token id has been revoked.
type TokenRevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type (
	contextKeyCaller   struct{}
	contextKeyRawToken struct{}
)

// GetCaller retrieves the authenticated caller placed by RequireAuth.
func GetCaller(ctx context.Context) (scope.Caller, bool) {
	caller, ok := ctx.Value(contextKeyCaller{}).(scope.Caller)
	return caller, ok
}

// GetRawToken retrieves the bearer token string for the current request.
// Logout needs it to revoke the presented token.
func GetRawToken(ctx context.Context) string {
	token, _ := ctx.Value(contextKeyRawToken{}).(string)
	return token
}

func writeJSONError(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","message":"` + message + `"}`))
}

// RequireAuth validates the bearer token, rejects revoked tokens and
// stores the resulting scope caller in the request context.
func RequireAuth(validator TokenValidator, revocationChecker TokenRevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			if revocationChecker != nil {
				if claims.ID == "" {
					logger.WarnContext(ctx, "unauthorized access - missing token jti",
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
					return
				}
				revoked, err := revocationChecker.IsTokenRevoked(ctx, claims.ID)
				if err != nil {
					logger.ErrorContext(ctx, "failed to check token revocation",
						"error", err,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusInternalServerError, "internal", "failed to validate token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - token revoked",
						"jti", claims.ID,
						"request_id", requestID,
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "token has been revoked")
					return
				}
			}

			caller, err := claims.Caller()
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed scope claims",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, contextKeyCaller{}, caller)
			ctx = context.WithValue(ctx, contextKeyRawToken{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
