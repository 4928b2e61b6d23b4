package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/goseal/internal/credential"
	"github.com/shandysiswandi/goseal/internal/integrity"
	"github.com/shandysiswandi/goseal/internal/site"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.site.enabled") {
		if err := site.New(site.Dependency{
			CacheConn:  a.cacheConn,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module site", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.integrity.enabled") {
		if err := integrity.New(integrity.Dependency{
			Goroutine:   a.goroutine,
			Authorizer:  a.enforcer,
			Router:      a.router,
			Idempotency: a.idemp,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			Clock:       a.clock,
			Validator:   a.validator,
		}); err != nil {
			slog.Error("failed to init module integrity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.credential.enabled") {
		if err := credential.New(credential.Dependency{
			Goroutine:  a.goroutine,
			Authorizer: a.enforcer,
			Router:     a.router,
			Messaging:  a.messaging,
			Instrument: a.ins,
			Hashers:    a.hashers,
			Pool:       a.hashPool,
			HMAC:       a.hmac,
			Limiter:    a.limiter,
			UID:        a.uid,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module credential", "error", err)
			os.Exit(1)
		}
	}
}
