package site

import (
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
	"github.com/shandysiswandi/goseal/internal/site/inbound"
	"github.com/shandysiswandi/goseal/internal/site/outbound/cache"
	"github.com/shandysiswandi/goseal/internal/site/usecase"
)

type Dependency struct {
	CacheConn  redis.UniversalClient      `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// PublicRoutes lists the routes this module serves without authentication.
func PublicRoutes() []string {
	return []string{inbound.RouteHealth, inbound.RouteRobots}
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoCache:  cache.NewCache(dep.CacheConn, dep.Instrument),
		Config:     dep.Config,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
