package store

import "context"

// KV is the synchronous get/set/remove facade over the durable store.
//
// Read unmarshals the value at key into dest and reports whether a usable
// value was found. A missing or malformed value is reported as absent, never
// as an error; callers keep whatever default dest already holds. Write and
// Remove persist last-write-wins with no transactions.
type KV interface {
	Read(ctx context.Context, key string, dest interface{}) (bool, error)
	Write(ctx context.Context, key string, value interface{}) error
	Remove(ctx context.Context, key string) error
}

// Signaler notifies after-the-fact about changed keys. Implementations fan
// the signal out to other sessions (Redis pub/sub) or to in-process
// subscribers (tests).
type Signaler interface {
	Changes(ctx context.Context) (<-chan string, func(), error)
}
