package controller

import (
	"net/http"
	"registration/pkg/logger"

	"go.uber.org/zap"
)

// InternalErrorBody is written when a handler panics.
const InternalErrorBody = `{"error":"Internal error","code":"INTERNAL"}`

// WithRecover returns a middleware that turns a handler panic into a 500
// response and logs the panic value. http.ErrAbortHandler is re-raised.
func WithRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler { //nolint: errorlint
				panic(p)
			}

			logger.Error(r.Context(), "recovered from panic", zap.Any("panic", p), zap.Stack("stack"))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(InternalErrorBody))
		}()

		next.ServeHTTP(w, r)
	})
}
