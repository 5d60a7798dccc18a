package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apierrors "github.com/pribylovaa/bookshelf/internal/http/errors"
)

// Recover перехватывает panic и отвечает 500/internal.
// Стек попадает в лог всегда, а в ответ — только в режиме отладки.
// Ставится внутри RequestID и Logging, чтобы запись несла request_id.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				// Запись в лог (со стеком и request_id) делает WriteError.
				apierrors.WriteError(w, r, fmt.Errorf("panic: %v\n%s", rec, debug.Stack()))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
