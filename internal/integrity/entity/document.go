package entity

import "time"

// ObjectPrefix namespaces content-addressed objects by digest algorithm.
const ObjectPrefix = "sha256/"

// Document is a payload stored under its own fingerprint.
type Document struct {
	Fingerprint string
	Size        int64
	ContentType string
	StoredBy    string
	StoredAt    time.Time
}

// ObjectKey returns the storage key of the document with fingerprint fp.
func ObjectKey(fp string) string {
	return ObjectPrefix + fp
}
