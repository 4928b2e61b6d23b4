package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/goseal/internal/pkg/authz"
	"github.com/shandysiswandi/goseal/internal/pkg/clock"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"github.com/shandysiswandi/goseal/internal/pkg/goroutine"
	"github.com/shandysiswandi/goseal/internal/pkg/hash"
	"github.com/shandysiswandi/goseal/internal/pkg/idempotency"
	"github.com/shandysiswandi/goseal/internal/pkg/instrument"
	"github.com/shandysiswandi/goseal/internal/pkg/jwt"
	"github.com/shandysiswandi/goseal/internal/pkg/messaging"
	"github.com/shandysiswandi/goseal/internal/pkg/ratelimit"
	"github.com/shandysiswandi/goseal/internal/pkg/router"
	"github.com/shandysiswandi/goseal/internal/pkg/storage"
	"github.com/shandysiswandi/goseal/internal/pkg/uid"
	"github.com/shandysiswandi/goseal/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	uuid      uid.StringID
	hmac      *hash.HMACSHA256
	hashers   *hash.Multi
	hashPool  *hash.Pool
	jwt       jwt.JWT

	// resources
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	limiter   *ratelimit.Limiter
	messaging messaging.Publisher
	storage   storage.Storage
	enforcer  *authz.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initReporter()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initCache()
	app.initStorage()
	app.initMessaging()
	app.initAuthz()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
