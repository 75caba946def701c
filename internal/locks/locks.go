// Package locks provides per-key mutual exclusion, in process or across processes through Redis.
package locks

import "context"

// Unlock releases a held lock. It is safe to call more than once.
type Unlock func()

// Locker serializes work per key
type Locker interface {
	// Lock blocks until the key is held or ctx is done
	Lock(ctx context.Context, key string) (Unlock, error)
}
