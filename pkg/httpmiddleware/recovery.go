package httpmiddleware

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Recovery returns a middleware that converts a handler panic into a 500
// response instead of tearing down the connection goroutine. The panic value
// and stack are logged with the request's method and path so the failing
// endpoint is identifiable from a single log line.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer recoverPanic(w, r)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverPanic(w http.ResponseWriter, r *http.Request) {
	rec := recover()
	if rec == nil {
		return
	}
	zctx.From(r.Context()).Error("panic recovered",
		zap.Any("panic", rec),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Stack("stack"),
	)
	// The response may be partially written already; closing the connection
	// is the only safe signal in that case.
	w.Header().Set("Connection", "close")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
