package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicRecorder は回復したpanicを記録する。metrics.Collectorが実装する。
type PanicRecorder interface {
	RecordPanic(route string)
}

// NewRecoveryMiddleware はハンドラー内のpanicを回復し、500 INTERNAL_ERROR のエンベロープを返す。
// recorderはnilでもよい。http.ErrAbortHandlerは回復せずに再送出する。
func NewRecoveryMiddleware(logger *slog.Logger, recorder PanicRecorder) func(next http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
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
				route := routePattern(r)
				if recorder != nil {
					recorder.RecordPanic(route)
				}
				logger.Error("ハンドラーでpanicが発生しました",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("route", route),
					slog.String("stack", string(debug.Stack())),
				)
				WriteInternalServerError(w)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
