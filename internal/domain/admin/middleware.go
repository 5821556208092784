package admin

import (
	"net/http"
	"strings"

	"github.com/framelight/framelight/internal/pkg/response"
)

// RequireAuth gates admin endpoints behind a valid session token. The token
// comes from the Authorization header, or from a "token" query parameter
// for websocket clients that cannot set headers.
func (s *JWTService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			response.Unauthorized(w, "Missing token")
			return
		}

		if _, err := s.ValidateToken(token); err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
