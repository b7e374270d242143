package shared

import (
	"context"
	"net/http"
	"strings"

	"log/slog"
)

type roleContextKey struct{}

// RoleHeader carries the caller's role. Authentication happens upstream; the
// engine only enforces capabilities for whatever role the edge proxy asserts.
const RoleHeader = "X-Role"

// Guard wires capability checks for HTTP handlers.
type Guard struct {
	Logger *slog.Logger
}

// Require ensures the asserted role grants every listed capability.
func (g Guard) Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(caps) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role := Role(strings.TrimSpace(r.Header.Get(RoleHeader)))
			if !ValidRole(role) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			for _, c := range caps {
				if !HasCapability(role, c) {
					if g.Logger != nil {
						g.Logger.Warn("capability denied",
							slog.String("role", string(role)),
							slog.String("capability", string(c)),
							slog.String("path", r.URL.Path))
					}
					http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithRole(r.Context(), role)))
		})
	}
}

// WithRole stores the caller's role on the context.
func WithRole(ctx context.Context, role Role) context.Context {
	return context.WithValue(ctx, roleContextKey{}, role)
}

// RoleFromContext returns the role asserted for the current request.
func RoleFromContext(ctx context.Context) (Role, bool) {
	role, ok := ctx.Value(roleContextKey{}).(Role)
	return role, ok
}
