package usecase

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/goerror"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/valyala/fasttemplate"
)

const (
	healthTimeout = 2 * time.Second

	robotsTemplate = "User-agent: *\n[[disallow]][[sitemap]]"
)

type repoCache interface {
	Ping(ctx context.Context) error
}

type Usecase struct {
	repoCache repoCache
	cfg       config.Config
	ins       instrument.Instrumentation
	robots    *fasttemplate.Template
}

type Dependency struct {
	RepoCache  repoCache
	Config     config.Config
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoCache: dep.RepoCache,
		cfg:       dep.Config,
		ins:       dep.Instrument,
		robots:    fasttemplate.New(robotsTemplate, "[[", "]]"),
	}
}

type HealthOutput struct {
	Status string
	Redis  string
}

func (s *Usecase) Health(ctx context.Context) (*HealthOutput, error) {
	ctx, span := s.ins.Tracer("site.usecase").Start(ctx, "Health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := s.repoCache.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "health check failed", "dependency", "redis", "error", err)
		return nil, goerror.NewUnavailable(err, "Service is unhealthy")
	}

	return &HealthOutput{Status: "ok", Redis: "up"}, nil
}

// Robots renders robots.txt from the current configuration, so edits apply
// without a restart.
func (s *Usecase) Robots(ctx context.Context) string {
	_, span := s.ins.Tracer("site.usecase").Start(ctx, "Robots")
	defer span.End()

	return s.robots.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		var b strings.Builder
		switch tag {
		case "disallow":
			paths := s.cfg.GetArray("modules.site.robots.disallow")
			if len(paths) == 0 {
				b.WriteString("Disallow:\n")
			}
			for _, p := range paths {
				b.WriteString("Disallow: " + strings.TrimSpace(p) + "\n")
			}
		case "sitemap":
			if u := strings.TrimSpace(s.cfg.GetString("modules.site.robots.sitemap_url")); u != "" {
				b.WriteString("\nSitemap: " + u + "\n")
			}
		}
		return w.Write([]byte(b.String()))
	})
}
