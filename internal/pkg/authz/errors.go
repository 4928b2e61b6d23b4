package authz

import "errors"

var (
	// ErrReadOnly indicates a write attempted through the configuration adapter.
	ErrReadOnly = errors.New("authz: policies are read-only")
	// ErrInvalidFilterType indicates the filter value is not supported.
	ErrInvalidFilterType = errors.New("authz: invalid filter type")
	// ErrInvalidRule indicates a configured line that is not role:object:action or client:role.
	ErrInvalidRule = errors.New("authz: invalid rule")
	// ErrDenied indicates the subject is not allowed to perform the action.
	ErrDenied = errors.New("authz: permission denied")
)
