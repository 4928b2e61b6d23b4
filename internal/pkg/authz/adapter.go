package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3/model"
	"github.com/casbin/casbin/v3/persist"
	"github.com/samber/lo"
	"github.com/shandysiswandi/goseal/internal/pkg/config"
	"go.uber.org/atomic"
)

const (
	keyPolicies = "authz.policies"
	keyRoles    = "authz.roles"
)

// Filter limits a load to the policy lines of the given roles.
type Filter struct {
	Roles []string
}

// Adapter is a read-only casbin adapter backed by configuration.
//
// Policies are configured as role:object:action lines under authz.policies
// and role grants as client:role lines under authz.roles.
type Adapter struct {
	cfg    config.Config
	filter *atomic.Bool
}

var (
	_ persist.Adapter         = (*Adapter)(nil)
	_ persist.FilteredAdapter = (*Adapter)(nil)
)

// NewAdapter returns an adapter reading from cfg on every load.
func NewAdapter(cfg config.Config) *Adapter {
	return &Adapter{cfg: cfg, filter: atomic.NewBool(false)}
}

// Lines returns the deduplicated casbin policy lines currently configured.
func (a *Adapter) Lines() ([][]string, error) {
	var lines [][]string

	for _, raw := range a.cfg.GetArray(keyPolicies) {
		parts := splitRule(raw, 3)
		if parts == nil {
			return nil, fmt.Errorf("%w: policy %q", ErrInvalidRule, raw)
		}
		lines = append(lines, append([]string{"p"}, parts...))
	}

	for _, raw := range a.cfg.GetArray(keyRoles) {
		parts := splitRule(raw, 2)
		if parts == nil {
			return nil, fmt.Errorf("%w: role %q", ErrInvalidRule, raw)
		}
		lines = append(lines, append([]string{"g"}, parts...))
	}

	return lo.UniqBy(lines, func(line []string) string {
		return strings.Join(line, ",")
	}), nil
}

// LoadPolicyCtx loads all configured lines into the model.
func (a *Adapter) LoadPolicyCtx(_ context.Context, m model.Model) error {
	lines, err := a.Lines()
	if err != nil {
		return err
	}

	a.filter.Store(false)
	return loadLines(m, lines)
}

// LoadFilteredPolicyCtx loads the grants plus the policies of the filtered roles.
func (a *Adapter) LoadFilteredPolicyCtx(ctx context.Context, m model.Model, filter any) error {
	if lo.IsNil(filter) {
		return a.LoadPolicyCtx(ctx, m)
	}

	var roles []string
	switch f := filter.(type) {
	case Filter:
		roles = f.Roles
	case *Filter:
		roles = f.Roles
	default:
		return ErrInvalidFilterType
	}

	lines, err := a.Lines()
	if err != nil {
		return err
	}

	lines = lo.Filter(lines, func(line []string, _ int) bool {
		return line[0] == "g" || lo.Contains(roles, line[1])
	})

	a.filter.Store(true)
	return loadLines(m, lines)
}

// LoadPolicy loads all policies into the model.
func (a *Adapter) LoadPolicy(m model.Model) error {
	return a.LoadPolicyCtx(context.Background(), m)
}

// LoadFilteredPolicy loads policies matching the filter into the model.
func (a *Adapter) LoadFilteredPolicy(m model.Model, filter any) error {
	return a.LoadFilteredPolicyCtx(context.Background(), m, filter)
}

// IsFiltered reports whether the last load used a filter.
func (a *Adapter) IsFiltered() bool {
	return a.filter.Load()
}

// SavePolicy always fails; edit the configuration instead.
func (a *Adapter) SavePolicy(model.Model) error {
	return ErrReadOnly
}

// AddPolicy always fails; edit the configuration instead.
func (a *Adapter) AddPolicy(string, string, []string) error {
	return ErrReadOnly
}

// RemovePolicy always fails; edit the configuration instead.
func (a *Adapter) RemovePolicy(string, string, []string) error {
	return ErrReadOnly
}

// RemoveFilteredPolicy always fails; edit the configuration instead.
func (a *Adapter) RemoveFilteredPolicy(string, string, int, ...string) error {
	return ErrReadOnly
}

func splitRule(raw string, n int) []string {
	parts := lo.Map(strings.Split(raw, ":"), func(s string, _ int) string {
		return strings.TrimSpace(s)
	})
	if len(parts) != n || lo.Contains(parts, "") {
		return nil
	}
	return parts
}

func loadLines(m model.Model, lines [][]string) error {
	for _, line := range lines {
		if err := persist.LoadPolicyArray(line, m); err != nil {
			return err
		}
	}
	return nil
}
