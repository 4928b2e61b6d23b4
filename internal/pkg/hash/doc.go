// Package hash derives and verifies salted, one-way credential hashes.
//
// A stored hash is an opaque text value carrying its own algorithm tag,
// cost parameters, salt and digest, so it can live in a single text column.
// Verify distinguishes three outcomes: a match, a mismatch (false, nil) and
// a stored value that is not a valid encoding (ErrMalformedHash). Callers
// must treat the last one as data corruption, not as a wrong secret.
//
// Bcrypt and Argon2id are adaptive and CPU bound; run them through a Pool
// when many requests verify concurrently.
package hash
