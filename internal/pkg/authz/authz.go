package authz

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// Authorizer checks a subject against the configured policies.
type Authorizer interface {
	Authorize(subject, object, action string) error
}

// Enforcer wraps a casbin enforcer whose policies can be reloaded while
// requests are being authorized.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// NewEnforcer builds an enforcer over the configured policies. When cfg is a
// config.Watcher the policies are reloaded after every configuration change.
func NewEnforcer(cfg config.Config) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: model: %w", err)
	}

	ce, err := casbin.NewEnforcer(m, NewAdapter(cfg))
	if err != nil {
		return nil, fmt.Errorf("authz: enforcer: %w", err)
	}

	e := &Enforcer{enforcer: ce}

	if w, ok := cfg.(config.Watcher); ok {
		w.OnChange(func() {
			if err := e.Reload(); err != nil {
				slog.Error("failed to reload authz policies", "error", err)
				return
			}
			slog.Info("authz policies reloaded")
		})
	}

	return e, nil
}

// Reload re-reads the policies from configuration.
func (e *Enforcer) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.enforcer.LoadPolicy()
}

// Enforce reports whether subject may perform action on object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.enforcer.Enforce(subject, object, action)
}

// Authorize returns ErrDenied unless subject may perform action on object.
func (e *Enforcer) Authorize(subject, object, action string) error {
	ok, err := e.Enforce(subject, object, action)
	if err != nil {
		return fmt.Errorf("authz: enforce: %w", err)
	}
	if !ok {
		return ErrDenied
	}
	return nil
}
