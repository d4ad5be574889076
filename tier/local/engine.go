package local

import (
	"sync/atomic"
	"unsafe"

	"github.com/rungalileo/gcache/internal/clock"
)

// engine is one bounded, TTL-indexed, lock-free cache, adapted from the
// teacher's cache-wide implementation to take its TTL per Set call rather
// than fixing it at construction — each registered use case shares one
// engine (see tier.go) but its individual entries can carry whatever TTL
// that call's Config specifies.
//
// Eviction drops the first already-expired entry a sample turns up, ahead
// of any live one: unlike the teacher's single uniform-TTL cache, entries
// here carry whatever per-call TTL their own Config specified, so a
// sampled slot is very often dead weight rather than a genuine contender
// for the frequency sketch the teacher uses to rank live entries. Among
// live candidates, the least-recently-touched one loses.
type engine struct {
	maxSize   int32
	tableMask uint32
	clk       clock.Provider

	entries []slot

	hits      int64
	misses    int64
	sets      int64
	deletes   int64
	evictions int64
	size      int64
}

type slot struct {
	key        string
	value      any
	keyHash    uint64
	expireAt   int64 // nanoseconds since epoch; 0 = no expiration
	lastAccess int64 // nanoseconds since epoch, touched on every get/set
	valid      int32 // 0=empty, 1=valid, 2=deleted
}

const (
	slotEmpty   = 0
	slotValid   = 1
	slotDeleted = 2
)

func newEngine(maxSize int, clk clock.Provider) *engine {
	if maxSize <= 0 {
		maxSize = 10_000
	}
	tableSize := nextPowerOf2(maxSize * 2)
	if tableSize < 16 {
		tableSize = 16
	}
	return &engine{
		maxSize:   int32(maxSize),
		tableMask: uint32(tableSize - 1),
		clk:       clk,
		entries:   make([]slot, tableSize),
	}
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

func (e *engine) set(key string, value any, ttlNanos int64) bool {
	keyHash := stringHash(key)
	now := e.clk.NowNano()

	var expireAt int64
	if ttlNanos > 0 {
		expireAt = now + ttlNanos
	}

	startIdx := keyHash & uint64(e.tableMask)
	for i := uint32(0); i <= e.tableMask; i++ {
		idx := (startIdx + uint64(i)) & uint64(e.tableMask)
		s := &e.entries[idx]
		state := atomic.LoadInt32(&s.valid)

		if state == slotEmpty || state == slotDeleted {
			if atomic.CompareAndSwapInt32(&s.valid, state, slotValid) {
				s.keyHash = keyHash
				s.key = key
				s.value = value
				atomic.StoreInt64(&s.expireAt, expireAt)
				atomic.StoreInt64(&s.lastAccess, now)
				if state == slotEmpty {
					atomic.AddInt64(&e.size, 1)
				}
				atomic.AddInt64(&e.sets, 1)
				if atomic.LoadInt64(&e.size) > int64(e.maxSize) {
					e.evictOne()
				}
				return true
			}
			continue
		}

		if state == slotValid && s.keyHash == keyHash && s.key == key {
			s.value = value
			atomic.StoreInt64(&s.expireAt, expireAt)
			atomic.StoreInt64(&s.lastAccess, now)
			atomic.AddInt64(&e.sets, 1)
			return true
		}
	}

	e.evictOne()
	return false
}

func (e *engine) get(key string) (any, bool) {
	keyHash := stringHash(key)

	startIdx := keyHash & uint64(e.tableMask)
	for i := uint32(0); i <= e.tableMask; i++ {
		idx := (startIdx + uint64(i)) & uint64(e.tableMask)
		s := &e.entries[idx]
		state := atomic.LoadInt32(&s.valid)

		if state == slotEmpty {
			break
		}
		if state == slotValid && s.keyHash == keyHash && s.key == key {
			now := e.clk.NowNano()
			expireAt := atomic.LoadInt64(&s.expireAt)
			if expireAt > 0 && now > expireAt {
				atomic.CompareAndSwapInt32(&s.valid, slotValid, slotDeleted)
				atomic.AddInt64(&e.misses, 1)
				return nil, false
			}
			atomic.StoreInt64(&s.lastAccess, now)
			atomic.AddInt64(&e.hits, 1)
			return s.value, true
		}
	}

	atomic.AddInt64(&e.misses, 1)
	return nil, false
}

func (e *engine) delete(key string) bool {
	keyHash := stringHash(key)
	startIdx := keyHash & uint64(e.tableMask)

	for i := uint32(0); i <= e.tableMask; i++ {
		idx := (startIdx + uint64(i)) & uint64(e.tableMask)
		s := &e.entries[idx]
		state := atomic.LoadInt32(&s.valid)

		if state == slotEmpty {
			return false
		}
		if state == slotValid && s.keyHash == keyHash && s.key == key {
			if atomic.CompareAndSwapInt32(&s.valid, slotValid, slotDeleted) {
				s.key = ""
				s.value = nil
				atomic.AddInt64(&e.size, -1)
				atomic.AddInt64(&e.deletes, 1)
				return true
			}
		}
	}
	return false
}

func (e *engine) clear() {
	for i := range e.entries {
		atomic.StoreInt32(&e.entries[i].valid, slotEmpty)
		e.entries[i].key = ""
		e.entries[i].value = nil
		e.entries[i].keyHash = 0
	}
	atomic.StoreInt64(&e.size, 0)
}

func (e *engine) len() int { return int(atomic.LoadInt64(&e.size)) }

// evictOne samples a handful of slots and drops the best candidate: any
// already-expired entry it finds beats every live one, since reclaiming
// dead weight is strictly better than evicting something still readable;
// among live candidates, the one least recently touched loses.
func (e *engine) evictOne() {
	const sampleSize = 5
	now := e.clk.NowNano()

	var expiredVictim, lruVictim *slot
	oldestAccess := int64(1<<63 - 1)

	tableSize := int(e.tableMask) + 1
	step := tableSize / sampleSize
	if step < 1 {
		step = 1
	}

	for i := 0; i < sampleSize; i++ {
		idx := (i * step) % tableSize
		s := &e.entries[idx]
		if atomic.LoadInt32(&s.valid) != slotValid {
			continue
		}
		if expireAt := atomic.LoadInt64(&s.expireAt); expireAt > 0 && now > expireAt {
			expiredVictim = s
			break
		}
		if access := atomic.LoadInt64(&s.lastAccess); access < oldestAccess {
			oldestAccess = access
			lruVictim = s
		}
	}

	victim := expiredVictim
	if victim == nil {
		victim = lruVictim
	}

	if victim != nil && atomic.CompareAndSwapInt32(&victim.valid, slotValid, slotDeleted) {
		victim.key = ""
		victim.value = nil
		atomic.AddInt64(&e.size, -1)
		atomic.AddInt64(&e.evictions, 1)
		return
	}

	for i := range e.entries {
		s := &e.entries[i]
		if atomic.LoadInt32(&s.valid) == slotValid {
			if atomic.CompareAndSwapInt32(&s.valid, slotValid, slotDeleted) {
				s.key = ""
				s.value = nil
				atomic.AddInt64(&e.size, -1)
				atomic.AddInt64(&e.evictions, 1)
				return
			}
		}
	}
}

// stringHash computes a 64-bit FNV-1a hash, avoiding an allocation for the
// string-to-bytes conversion.
func stringHash(s string) uint64 {
	const (
		fnv64Offset = 14695981039346656037
		fnv64Prime  = 1099511628211
	)
	hash := uint64(fnv64Offset)
	data := unsafe.Slice(unsafe.StringData(s), len(s))
	for _, b := range data {
		hash ^= uint64(b)
		hash *= fnv64Prime
	}
	return hash
}
