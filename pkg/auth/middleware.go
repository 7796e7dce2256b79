package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dd0wney/cyberdna/pkg/logging"
)

type claimsKey struct{}

// ErrorResponse is the JSON body of an authentication failure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WithClaims stores claims in ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by Middleware
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// Middleware rejects requests without a valid bearer token and stores the
// claims in the request context. A nil manager disables authentication.
func Middleware(m *JWTManager, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// CORS preflight never carries credentials
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if !ok {
				respondError(w, http.StatusUnauthorized, "missing or malformed authorization header")
				return
			}
			claims, err := m.ValidateToken(r.Context(), token)
			if err != nil {
				logger.Debug("token rejected", logging.Component("auth"), logging.Error(err))
				respondError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
