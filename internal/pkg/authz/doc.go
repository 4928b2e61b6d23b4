// Package authz decides whether an authenticated service client may perform
// an action on a resource. Policies and role grants are read from
// configuration and evaluated with casbin using a role based model.
package authz
