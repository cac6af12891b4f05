// Package ledger tracks recently seen request nonces so a mutating request
// can be admitted exactly once within a retention window.
//
// The memory driver is authoritative for a single process only; deployments
// running more than one gateway instance must use the Redis driver, which
// gets the same insert-if-absent semantics from SET NX with a TTL.
package ledger

import (
	"context"
	"errors"
	"time"
)

// DefaultRetention is how long an admitted nonce stays on the books. It must
// exceed every replay window the guard can apply, so an entry eligible for
// eviction is already outside anyone's replay horizon.
const DefaultRetention = 10 * time.Minute

// ErrUnavailable reports that the backing store could not answer. Callers
// must fail closed on it.
var ErrUnavailable = errors.New("ledger: backing store unavailable")

// Metadata is advisory context recorded with a nonce for diagnostics on
// duplicate detection. It never affects the admit/reject decision; admission
// is keyed solely on the nonce value.
type Metadata struct {
	Method   string
	Path     string
	SourceIP string
}

// Ledger is the anti-replay memory. TryAdmit is an atomic check-and-insert:
// given concurrent callers presenting the same nonce, exactly one is
// admitted.
type Ledger interface {
	// TryAdmit records the nonce if it has not been seen within the
	// retention window. It returns false if the nonce is a duplicate, and a
	// non-nil error only when the backing store itself failed.
	TryAdmit(ctx context.Context, nonce string, meta Metadata, now time.Time) (bool, error)
}

// Stats is a diagnostic snapshot of a ledger's contents.
type Stats struct {
	Size           int
	OldestEntryAge time.Duration
	NewestEntryAge time.Duration
}

// StatsProvider is implemented by drivers that can report their contents.
// The Redis driver delegates eviction to key TTLs and does not implement it.
type StatsProvider interface {
	Stats(now time.Time) Stats
}
