// Package conv collects tiny helper functions that are not part of the public API
// but aid internal conversions.
//
// It exposes `AsInt`, which attempts to coerce various numeric types into a
// plain `int`, and `AsKey`, which normalizes JSON-RPC ids into stable map keys.
package conv
