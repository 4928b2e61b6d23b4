package router

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/reporter"
	"github.com/shandysiswandi/goseal/internal/pkg/stacktrace"
)

// middlewareRecoverer turns a handler panic into a 500 envelope and reports
// it. http.ErrAbortHandler is re-raised so net/http can drop the connection.
func middlewareRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(rvr)
			}

			ctx := r.Context()
			reporter.CapturePanic(ctx, rvr)

			stack := debug.Stack()
			if frames := stacktrace.InternalPaths(stack); len(frames) > 0 {
				slog.ErrorContext(ctx, "panic on the server", "because", rvr, "stack", frames)
			} else {
				slog.ErrorContext(ctx, "panic on the server", "because", rvr, "stack", string(stack))
			}

			writeJSON(w, errorResponse{Message: "Internal server error", Code: goerror.CodeInternal.String()},
				http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
