package inbound

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shandysiswandi/goseal/internal/pkg/router"
	"github.com/shandysiswandi/goseal/internal/site/usecase"
)

// Routes reachable without a bearer token.
const (
	RouteHealth = "/health"
	RouteRobots = "/robots.txt"
)

type uc interface {
	Health(ctx context.Context) (*usecase.HealthOutput, error)
	Robots(ctx context.Context) string
}

type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis"`
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	r.GET(RouteHealth, func(req *router.Request) (any, error) {
		out, err := uc.Health(req.Context())
		if err != nil {
			return nil, err
		}
		return HealthResponse{Status: out.Status, Redis: out.Redis}, nil
	})

	r.GETRaw(RouteRobots, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(uc.Robots(req.Context()))); err != nil {
			slog.WarnContext(req.Context(), "failed to write robots.txt", "error", err)
		}
	}))
}
