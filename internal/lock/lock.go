// Package lock serializes scheduling writes per resource-item.  Create,
// update and restore hold the locks for every item they touch while they
// check availability and persist, which closes the read-then-write window
// between two requests for the same suite, lounge date or piece of gear.
package lock

import (
	"context"
	"errors"
	"sort"
)

// ErrNotAcquired is returned when a lock could not be obtained before the
// context expired.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker acquires a set of named locks.  Keys are deduplicated and taken in
// sorted order so two callers asking for overlapping sets cannot deadlock.
// The returned function releases every key; it is safe to call once.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// normalize returns keys sorted with duplicates and empty entries removed.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	n := 0
	for i, k := range out {
		if i == 0 || k != out[n-1] {
			out[n] = k
			n++
		}
	}
	return out[:n]
}
