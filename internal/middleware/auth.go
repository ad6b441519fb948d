package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/auth"
)

// RequireAuth verifies the bearer token and populates AuthContext.
// WebSocket upgrades may pass the token as ?access_token= because browsers
// cannot set headers on them.
func RequireAuth(secret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := auth.ValidateToken(secret, issuer, token)
			if err != nil {
				unauthorized(w, "invalid or expired token")
				return
			}

			ac := auth.AuthContext{
				UserID:  claims.Subject,
				TokenID: claims.ID,
			}

			recordUser(r, ac)
			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="larder"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
