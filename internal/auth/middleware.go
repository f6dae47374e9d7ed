package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// RequireAdmin rejects requests without a valid admin bearer token with 401
// and attaches the claims to the request context otherwise.
func RequireAdmin(a *Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
				deny(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := a.Validate(strings.TrimSpace(token))
			switch {
			case errors.Is(err, ErrForbidden):
				deny(w, http.StatusForbidden, "admin role required")
				return
			case err != nil:
				deny(w, http.StatusUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

func deny(w http.ResponseWriter, status int, msg string) {
	code := "unauthorized"
	if status == http.StatusForbidden {
		code = "forbidden"
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="fundineed-admin"`)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": msg})
}
