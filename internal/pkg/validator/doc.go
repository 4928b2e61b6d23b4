// Package validator checks tagged request structs. The v10 implementation
// adds the fingerprint and algorithm rules and reports failures keyed by
// snake_case field name.
package validator
