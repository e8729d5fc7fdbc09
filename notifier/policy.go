package notifier

import (
	"sort"

	"github.com/huykn/cache-coherence/types"
)

// InvalidationSet is the set of cache keys one event invalidates.
type InvalidationSet map[string]struct{}

// Add inserts key; duplicates collapse.
func (s InvalidationSet) Add(key string) {
	s[key] = struct{}{}
}

// Contains reports whether key is in the set.
func (s InvalidationSet) Contains(key string) bool {
	_, ok := s[key]
	return ok
}

// Len returns the number of keys.
func (s InvalidationSet) Len() int {
	return len(s)
}

// Keys returns the keys in sorted order.
func (s InvalidationSet) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Policy maps a DomainEvent to the keys that may be stale after it.
// It over-invalidates rather than risk a stale read: every kind clears the
// entity key, the parent listing and the aggregate listing.
type Policy struct {
	keys KeyScheme
}

// NewPolicy creates a Policy over keys.
func NewPolicy(keys KeyScheme) Policy {
	return Policy{keys: keys}
}

// Compute is total and pure. The aggregate key is always present.
func (p Policy) Compute(ev types.DomainEvent) InvalidationSet {
	set := make(InvalidationSet, 3)
	if ev.HasEntity() {
		set.Add(p.keys.ByID(ev.EntityID))
	}
	if ev.HasParent() {
		set.Add(p.keys.ByParent(ev.ParentID))
	}
	set.Add(p.keys.All())
	return set
}
