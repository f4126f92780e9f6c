package access

import (
	"context"
	"time"
)

// DecisionCache stores permission-check outcomes keyed by request
// fingerprint. Implementations must be safe for concurrent use; last
// writer wins per key. Cache failures must degrade to a miss, never fail
// a check.
type DecisionCache interface {
	// Get returns the cached decision, if present and unexpired. Expired
	// entries behave as absent.
	Get(ctx context.Context, key DecisionKey) (allowed bool, ok bool)

	// Set stores a decision with the given lifetime, overwriting any
	// previous entry for the key.
	Set(ctx context.Context, key DecisionKey, allowed bool, ttl time.Duration)

	// InvalidateUser removes every decision cached for the user, e.g.
	// after a role change.
	InvalidateUser(ctx context.Context, userID string)

	// Clear removes everything, e.g. after a global policy change.
	Clear(ctx context.Context)
}
