package middleware

import (
	"context"
	"errors"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/logx"
)

type principalContextKey struct{}

// PrincipalFromContext returns the principal stored by [Guard].
func PrincipalFromContext(ctx context.Context) (*goSession.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*goSession.Principal)
	return p, ok
}

// Guard rejects requests whose Authorization header does not carry a valid
// access token. Rejected credentials get 401; a cache or identity store outage
// gets 503 so clients do not discard tokens that may still be good.
func Guard(engine *goSession.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			p, err := engine.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, goSession.ErrInfrastructureUnavailable) {
					logx.FromContext(r.Context()).ErrorContext(r.Context(), "session backend unavailable", "error", err)
					http.Error(w, "service unavailable", http.StatusServiceUnavailable)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
