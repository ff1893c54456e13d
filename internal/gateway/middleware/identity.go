package middleware

import (
	"context"
	"net/http"

	"profily/internal/gateway/entity"
)

type identityKey struct{}

// WithIdentity extracts X-User-ID and the bearer token set by the upstream
// auth layer. Requests missing either are rejected with 401.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := entity.NewUser(r.Header.Get("X-User-ID"), r.Header.Get("Authorization"))
		if !user.Authenticated() {
			http.Error(w, "user id and bearer token are required", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// IdentityFrom returns the caller stored by WithIdentity.
func IdentityFrom(ctx context.Context) (entity.User, bool) {
	u, ok := ctx.Value(identityKey{}).(entity.User)
	return u, ok
}
