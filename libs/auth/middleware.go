package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/md-rashed-zaman/staffplan/libs/httpx"
)

// ExtractBearerToken returns the token of an "Authorization: Bearer" header,
// or "" when absent.
func ExtractBearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireAuth rejects requests without a valid bearer token and stores the
// claims in the request context.
func RequireAuth(v *Validator, logger *slog.Logger) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := v.Validate(r.Context(), ExtractBearerToken(r))
			if err != nil {
				detail := "invalid token"
				if errors.Is(err, ErrMissingToken) {
					detail = "missing or invalid Authorization header"
				}
				logger.Debug("request rejected", "path", r.URL.Path, "err", err)
				w.Header().Set("WWW-Authenticate", `Bearer realm="staffplan"`)
				httpx.WriteProblem(w, http.StatusUnauthorized, detail)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if ok {
				for _, role := range roles {
					if claims.HasRole(role) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			httpx.WriteProblem(w, http.StatusForbidden, "forbidden")
		})
	}
}
