// internal/accesscache/cache.go
package accesscache

import (
	"context"
	"time"
)

// DefaultTTL is the staleness window for cached access grants. It bounds
// how long a revoked assignment keeps granting access; operators accepting
// the window can raise it to shed store load.
const DefaultTTL = 5 * time.Minute

// Cache memoizes positive access-check results keyed by (subject, house).
//
// Only positive results are ever stored: a negative result must always
// re-check the store on the next request, since assignments can newly
// appear. Entries live server-side only, so a client can never forge one.
type Cache interface {
	// Get reports whether a positive grant is cached for the key. A miss is
	// (false, nil); an error means the cache backend itself failed and the
	// caller should fall through to the store.
	Get(ctx context.Context, subjectID, houseID string) (bool, error)

	// Put records a positive grant for the key. Concurrent puts of the same
	// key are idempotent.
	Put(ctx context.Context, subjectID, houseID string) error
}

// key builds the cache key for a (subject, house) pair
func key(subjectID, houseID string) string {
	return subjectID + "|" + houseID
}
