package session

import "github.com/oklog/ulid/v2"

// NewID returns a new time-ordered session ID: a ULID in its canonical
// 26-character Crockford Base32 form. IDs minted in the same millisecond
// still sort in creation order.
func NewID() string {
	return ulid.Make().String()
}

// validID reports whether s is a canonical ULID, which is the only shape
// NewID produces.
func validID(s string) bool {
	id, err := ulid.ParseStrict(s)
	return err == nil && id.String() == s
}
