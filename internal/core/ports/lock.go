package ports

import (
	"context"
	"time"
)

// LockLease is a held distributed lock. Release is safe to call once the
// holder is done; implementations keep the lock alive until the min-hold
// floor has elapsed even if Release is called earlier.
type LockLease interface {
	Release(ctx context.Context) error
}

// DistributedLock serializes scheduled imports across service instances.
// Any mutex-capable shared store can implement it.
type DistributedLock interface {
	// TryAcquire attempts to take the named lock. maxHold bounds how long a
	// crashed holder can block others; minHold prevents immediate
	// re-acquisition thrash. Returns (nil, nil) when another instance holds
	// the lock; that is not an error.
	TryAcquire(ctx context.Context, name string, maxHold, minHold time.Duration) (LockLease, error)
}
