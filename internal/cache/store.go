// Package cache implements the bounded, TTL-expiring, LRU-evicted store
// backing the explorer's read path. One collection per entity kind, each with
// its own lock, so lookups for different kinds never contend.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/Belloabraham121/warpscan/internal/metrics"
)

// Kind identifies one cached entity collection.
type Kind string

const (
	KindBlock          Kind = "block"
	KindTransaction    Kind = "transaction"
	KindAddress        Kind = "address"
	KindContract       Kind = "contract"
	KindToken          Kind = "token"
	KindAddressTxs     Kind = "address_txs"
	KindTokenTransfers Kind = "token_transfers"
	KindInternalTxs    Kind = "internal_txs"
	KindTokenBalances  Kind = "token_balances"
	KindENSName        Kind = "ens_name"
)

// Policy bounds one kind's collection.
type Policy struct {
	Capacity int
	TTL      time.Duration
}

// DefaultPolicies returns the per-kind bounds used when config does not
// override them. Contract and token metadata churn slowly and cache long;
// balances and list views go stale within a block or two.
func DefaultPolicies() map[Kind]Policy {
	return map[Kind]Policy{
		KindBlock:          {Capacity: 256, TTL: 5 * time.Minute},
		KindTransaction:    {Capacity: 512, TTL: 5 * time.Minute},
		KindAddress:        {Capacity: 256, TTL: 30 * time.Second},
		KindContract:       {Capacity: 128, TTL: time.Hour},
		KindToken:          {Capacity: 256, TTL: time.Hour},
		KindAddressTxs:     {Capacity: 128, TTL: 30 * time.Second},
		KindTokenTransfers: {Capacity: 128, TTL: 30 * time.Second},
		KindInternalTxs:    {Capacity: 128, TTL: 30 * time.Second},
		KindTokenBalances:  {Capacity: 128, TTL: 30 * time.Second},
		KindENSName:        {Capacity: 256, TTL: time.Hour},
	}
}

type entry struct {
	key      string
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.After(e.storedAt.Add(e.ttl))
}

// kindCache is one bounded LRU collection. Front of the list is the most
// recently used entry.
type kindCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[string]*list.Element
}

func newKindCache(p Policy) *kindCache {
	if p.Capacity <= 0 {
		p.Capacity = 128
	}
	return &kindCache{
		capacity: p.Capacity,
		ttl:      p.TTL,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *kindCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	ent := el.Value.(*entry)
	if ent.expired(time.Now()) {
		// Lazy expiry: evict on read, report absence.
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return ent.value, true
}

func (c *kindCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent := &entry{key: key, value: value, storedAt: time.Now(), ttl: c.ttl}
	if el, ok := c.items[key]; ok {
		// Replaced wholesale, not merged.
		el.Value = ent
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(ent)
	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*entry).key)
		}
	}
}

func (c *kindCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
}

func (c *kindCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Store is the multi-kind cache. When disabled every Put is a no-op and every
// Get reports absence, so callers never branch on the flag themselves.
type Store struct {
	enabled bool
	kinds   map[Kind]*kindCache
}

// New builds a Store from the default policies with overrides applied on top.
func New(enabled bool, overrides map[Kind]Policy) *Store {
	policies := DefaultPolicies()
	for k, p := range overrides {
		policies[k] = p
	}

	kinds := make(map[Kind]*kindCache, len(policies))
	for k, p := range policies {
		kinds[k] = newKindCache(p)
	}
	return &Store{enabled: enabled, kinds: kinds}
}

// Enabled reports whether the store is active.
func (s *Store) Enabled() bool { return s.enabled }

// Get returns the live value for key, or absence when the store is disabled,
// the key is missing, or the entry expired (expiry evicts as a side effect).
func (s *Store) Get(kind Kind, key string) (any, bool) {
	if !s.enabled {
		return nil, false
	}
	c, ok := s.kinds[kind]
	if !ok {
		return nil, false
	}
	v, hit := c.get(key)
	if hit {
		metrics.CacheHitsTotal.WithLabelValues(string(kind)).Inc()
	} else {
		metrics.CacheMissesTotal.WithLabelValues(string(kind)).Inc()
	}
	return v, hit
}

// Put stores value under key, evicting the least recently used entry if the
// kind's collection is full. No-op when disabled.
func (s *Store) Put(kind Kind, key string, value any) {
	if !s.enabled {
		return
	}
	if c, ok := s.kinds[kind]; ok {
		c.put(key, value)
	}
}

// ClearAll drops every entry of every kind.
func (s *Store) ClearAll() {
	for _, c := range s.kinds {
		c.clear()
	}
}

// Stats returns the current entry count per kind. Eviction is observable only
// through these counts.
func (s *Store) Stats() map[Kind]int {
	stats := make(map[Kind]int, len(s.kinds))
	for k, c := range s.kinds {
		stats[k] = c.len()
	}
	return stats
}

// Lookup is the typed read over the untyped store. A stored value of the
// wrong type reports absence rather than panicking.
func Lookup[T any](s *Store, kind Kind, key string) (T, bool) {
	var zero T
	v, ok := s.Get(kind, key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
