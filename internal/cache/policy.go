package cache

import "time"

// Entry is a cached value with its insertion time.
type Entry struct {
	Key        string
	Value      any
	InsertedAt time.Time
}

// EvictionPolicy decides which entries leave the cache.
type EvictionPolicy interface {
	// Expired reports whether e is past its lifetime at now.
	Expired(e Entry, now time.Time) bool
	// Victims picks the keys to drop so that one more entry fits within
	// maxEntries. Entries are given oldest insertion first.
	Victims(entries []Entry, maxEntries int, now time.Time) []string
}

// ExpiryThenOldest drops expired entries first, then the oldest-inserted
// entries until there is room.
type ExpiryThenOldest struct {
	TTL time.Duration
}

func (p ExpiryThenOldest) Expired(e Entry, now time.Time) bool {
	return now.Sub(e.InsertedAt) > p.TTL
}

func (p ExpiryThenOldest) Victims(entries []Entry, maxEntries int, now time.Time) []string {
	var victims []string
	remaining := len(entries)

	kept := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if p.Expired(e, now) {
			victims = append(victims, e.Key)
			remaining--
			continue
		}
		kept = append(kept, e)
	}

	for _, e := range kept {
		if remaining < maxEntries {
			break
		}
		victims = append(victims, e.Key)
		remaining--
	}
	return victims
}
