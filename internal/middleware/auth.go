package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prostly/backend/internal/auth"
	"github.com/prostly/backend/internal/logging"
)

// TokenVerifier validates a bearer access token and resolves the user behind it.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// resolved actor on the context. WebSocket clients cannot set headers, so the
// token may alternatively arrive as an access_token query parameter.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				unauthorized(w, "authentication required")
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				logging.FromContext(r.Context()).Warn("access token rejected", "error", err)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("userId", userID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
