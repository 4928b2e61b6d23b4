package integrity

import (
	"github.com/shandysiswandi/goseal/internal/integrity/inbound"
	"github.com/shandysiswandi/goseal/internal/integrity/outbound/blob"
	"github.com/shandysiswandi/goseal/internal/integrity/outbound/mq"
	"github.com/shandysiswandi/goseal/internal/integrity/usecase"
	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/goroutine"
	"github.com/shandysiswandi/goseal/internal/pkg/idempotency"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/messaging"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
	"github.com/shandysiswandi/goseal/internal/pkg/storage"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
)

type Dependency struct {
	Goroutine   goroutine.Runner           `validate:"required"`
	Authorizer  authz.Authorizer           `validate:"required"`
	Router      *router.Router             `validate:"required"`
	Idempotency idempotency.Idempotency    `validate:"required"`
	Messaging   messaging.Publisher        `validate:"required"`
	Storage     storage.Storage            `validate:"required"`
	Config      config.Config              `validate:"required"`
	Instrument  instrument.Instrumentation `validate:"required"`
	UID         uid.NumberID               `validate:"required"`
	Clock       clock.Clocker              `validate:"required"`
	Validator   validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoBlob := blob.NewBlob(dep.Storage, dep.Config.GetString("modules.integrity.bucket"), dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoBlob:      repoBlob,
		RepoMessaging: repoMsg,
		Idempotency:   dep.Idempotency,
		Validator:     dep.Validator,
		Config:        dep.Config,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Authorizer:    dep.Authorizer,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
