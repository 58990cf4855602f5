package middleware

import (
	"net/http"

	"github.com/NeatNerdPrime/bluedoc/api/responses"
	"github.com/NeatNerdPrime/bluedoc/pkg/auth"
	pkgerrors "github.com/NeatNerdPrime/bluedoc/pkg/errors"
	"github.com/NeatNerdPrime/bluedoc/pkg/logger"
)

func RequireRole(role auth.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFromContext(r.Context()) != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
