// Package clock lets callers read the current time through Clocker, so
// expiry and timestamp logic can run against Fixed in tests.
package clock
