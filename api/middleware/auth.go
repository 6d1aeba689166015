package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/azafe/MyPhone-Backend/api/responses"
	pkgauth "github.com/azafe/MyPhone-Backend/pkg/auth"
	"github.com/azafe/MyPhone-Backend/pkg/config"
	pkgerrors "github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// claims. Token issuance lives in the identity service; this layer only
// verifies.
func Auth(cfg config.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(token, cfg.Secret)
			if err != nil {
				responses.WriteError(r.Context(), w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, claims.Role)
			ctx = logger.WithFields(ctx, map[string]any{
				"user_id":    claims.UserID.String(),
				"actor_role": claims.Role,
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
