// Package digest computes content fingerprints.
//
// A fingerprint is the SHA-256 digest of a payload rendered as 64 lowercase
// hexadecimal characters. Identical payloads always produce the same
// fingerprint. The payload is consumed as a stream, so callers may pass files,
// buffers or network bodies without reading them into memory first.
package digest
