package middleware

import (
	"net/http"
	"strings"

	"github.com/aruchith08/AcademiaMarket/logging"
	"github.com/aruchith08/AcademiaMarket/utils"
)

// JWTAuthMiddleware validates the bearer token and stamps the verified
// identity onto the request headers the handlers check.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		// Identity comes from the verified token, never from the client.
		r.Header.Set("User-ID", claims.UserID)
		r.Header.Set("Role", claims.Role)

		next.ServeHTTP(w, r)
	})
}
