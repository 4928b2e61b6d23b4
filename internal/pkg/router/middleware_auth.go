package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, publicEndpoints map[string]map[string]struct{}) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := matchedRoutePath(r)

			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, errorResponse{Message: "Authentication required", Code: goerror.CodeUnauthorized.String()}, http.StatusUnauthorized)
				return
			}

			if verifier == nil {
				writeJSON(w, errorResponse{Message: "Authentication unavailable", Code: goerror.CodeUnavailable.String()}, http.StatusServiceUnavailable)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				slog.WarnContext(r.Context(), "rejected bearer token", "path", path, "error", err)
				writeJSON(w, errorResponse{Message: "Invalid or expired token", Code: goerror.CodeUnauthorized.String()}, http.StatusUnauthorized)
				return
			}

			if rec, ok := w.(interface{ SetClient(string) }); ok {
				rec.SetClient(claims.ClientID())
			}

			next.ServeHTTP(w, r.WithContext(jwt.SetAuth(r.Context(), claims)))
		})
	}
}
