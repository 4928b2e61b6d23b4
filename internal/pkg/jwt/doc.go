// Package jwt issues and verifies the HS512 bearer tokens that calling
// services present, and carries the verified claims through a request
// context.
package jwt
