package middleware

import (
	"fmt"
	"net/http"

	"github.com/azafe/MyPhone-Backend/api/responses"
	pkgerrors "github.com/azafe/MyPhone-Backend/pkg/errors"
	"github.com/azafe/MyPhone-Backend/pkg/logger"
)

func Recoverer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err := fmt.Errorf("panic: %v", rec)
					ctx := logger.WithFields(r.Context(), map[string]any{"panic": rec})
					logger.Error(ctx, "panic.recovered", err, nil)
					responses.WriteError(ctx, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
