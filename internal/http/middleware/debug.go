package middleware

import (
	"net/http"

	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
)

// Debug включает поле debug в ответах об ошибках (только local/dev).
func Debug(enabled bool) Middleware {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(apierrors.WithDebug(r.Context())))
		})
	}
}
