package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rafata1/gocommerce/apperror"
	"github.com/rafata1/gocommerce/service/identity"
)

type ctxKey string

const principalKey ctxKey = "principal"

// authMiddleware resolves the bearer token into a Principal and stores
// it in the request context. Core operations receive the principal as
// an explicit argument, never by digging into ambient state themselves.
func authMiddleware(identitySvc identity.IService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, apperror.New(apperror.Unauthorized, "missing bearer token"))
				return
			}

			principal, err := identitySvc.VerifyToken(r.Context(), strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func principalFrom(r *http.Request) (identity.Principal, bool) {
	principal, ok := r.Context().Value(principalKey).(identity.Principal)
	return principal, ok
}
