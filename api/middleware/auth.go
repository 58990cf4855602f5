package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/NeatNerdPrime/bluedoc/api/responses"
	pkgAuth "github.com/NeatNerdPrime/bluedoc/pkg/auth"
	"github.com/NeatNerdPrime/bluedoc/pkg/config"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

// Auth validates a bearer token issued by the host application and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = WithRole(ctx, claims.Role)
			if logg != nil {
				if claims.UserID > 0 {
					ctx = logg.WithUserID(ctx, strconv.FormatInt(claims.UserID, 10))
				}
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
