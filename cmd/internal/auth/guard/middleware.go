package guard

import (
	"encoding/json"
	"errors"
	"net/http"

	"reel/cmd/internal/auth/session"
)

// Require wraps next so it only runs for authenticated requests.
// The authenticated user is placed on the request context.
func (g *Guard) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := AccessTokenFromRequest(r)
		if !ok {
			writeUnauthorized(w, "missing_token", "authentication required")
			return
		}

		user, err := g.Authenticate(r.Context(), tok)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrTokenExpired):
				writeUnauthorized(w, "token_expired", "access token expired")
			case errors.Is(err, session.ErrTokenInvalid):
				writeUnauthorized(w, "token_invalid", "invalid access token")
			default:
				writeServerError(w)
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func writeUnauthorized(w http.ResponseWriter, code, msg string) {
	writeGuardError(w, http.StatusUnauthorized, code, msg)
}

func writeServerError(w http.ResponseWriter) {
	writeGuardError(w, http.StatusInternalServerError, "internal", "internal error")
}

func writeGuardError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": msg},
	})
}
