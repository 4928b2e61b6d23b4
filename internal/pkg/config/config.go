// Package config exposes typed, read-only access to service settings.
package config

import (
	"io"
	"time"
)

// Config reads typed values by dotted key ("modules.integrity.enabled").
// Missing keys and values that fail to convert yield the zero value.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetFloat64(key string) float64
	GetString(key string) string

	// GetSecond and GetMinute read an integer and scale it to a duration.
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration

	// GetBinary reads a base64 encoded value.
	GetBinary(key string) []byte

	// GetArray reads either a YAML sequence or a comma separated string.
	// Elements are trimmed and blanks dropped.
	GetArray(key string) []string
}

// Watcher is implemented by configurations that reload at runtime.
type Watcher interface {
	// OnChange registers a callback invoked after each successful reload.
	OnChange(fn func())
}
