package credential

import (
	"github.com/shandysiswandi/goseal/internal/credential/inbound"
	"github.com/shandysiswandi/goseal/internal/credential/outbound/mq"
	"github.com/shandysiswandi/goseal/internal/credential/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/goroutine"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/messaging"
	"github.com/shandysiswandi/goseal/internal/pkg/ratelimit"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
)

type Dependency struct {
	Goroutine  goroutine.Runner           `validate:"required"`
	Authorizer authz.Authorizer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Publisher        `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Hashers    *hash.Multi                `validate:"required"`
	Pool       *hash.Pool                 `validate:"required"`
	HMAC       *hash.HMACSHA256           `validate:"required"`
	Limiter    *ratelimit.Limiter         `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Hashers:       dep.Hashers,
		Pool:          dep.Pool,
		Reference:     dep.HMAC,
		Limiter:       dep.Limiter,
		Validator:     dep.Validator,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Authorizer:    dep.Authorizer,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
