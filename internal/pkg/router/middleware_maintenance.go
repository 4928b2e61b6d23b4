package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
)

// frozenRoutes holds routes closed for maintenance. An entry is either a
// bare route ("/api/v1/documents") closing every method, or a method and
// route pair ("POST /api/v1/documents").
type frozenRoutes map[string]struct{}

func parseFrozenRoutes(entries []string) frozenRoutes {
	out := make(frozenRoutes, len(entries))
	for _, e := range entries {
		fields := strings.Fields(e)
		switch len(fields) {
		case 1:
			out[fields[0]] = struct{}{}
		case 2:
			out[strings.ToUpper(fields[0])+" "+fields[1]] = struct{}{}
		}
	}
	return out
}

func (f frozenRoutes) blocks(method, route string) bool {
	if _, ok := f[route]; ok {
		return true
	}
	_, ok := f[method+" "+route]
	return ok
}

func middlewareMaintenance(cfg config.Config) Middleware {
	var frozen frozenRoutes
	if cfg != nil {
		frozen = parseFrozenRoutes(cfg.GetArray("app.maintenance.endpoints"))
	}

	return func(next http.Handler) http.Handler {
		if len(frozen) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if frozen.blocks(r.Method, matchedRoutePath(r)) {
				w.Header().Set("Retry-After", "120")
				writeJSON(w, errorResponse{Message: "service is under maintenance", Code: goerror.CodeUnavailable.String()}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
