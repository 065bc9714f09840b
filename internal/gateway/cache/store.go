package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// Store is a byte cache with explicit invalidation.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, key string) error
}

// Clock supplies the current time; tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const (
	DefaultMaxEntries = 10000
	DefaultMaxAge     = 24 * time.Hour
)

// MemoryOptions configures a Memory store. Zero values pick the defaults.
type MemoryOptions struct {
	MaxEntries int
	MaxAge     time.Duration
	Clock      Clock
}

// Memory is an in-process LRU bounded by entry count, with entries expiring
// MaxAge after they were written.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	maxAge     time.Duration
	clock      Clock
	ll         *list.List
	items      map[string]*list.Element
}

type entry struct {
	key    string
	value  []byte
	stored time.Time
}

func NewMemory(opts MemoryOptions) *Memory {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Memory{
		maxEntries: opts.MaxEntries,
		maxAge:     opts.MaxAge,
		clock:      opts.Clock,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if m.clock.Now().Sub(e.stored) >= m.maxAge {
		m.remove(el)
		return nil, false, nil
	}
	m.ll.MoveToFront(el)
	return append([]byte(nil), e.value...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value = append([]byte(nil), value...)
	now := m.clock.Now()
	if el, ok := m.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.stored = now
		m.ll.MoveToFront(el)
		return nil
	}

	m.items[key] = m.ll.PushFront(&entry{key: key, value: value, stored: now})
	for m.ll.Len() > m.maxEntries {
		m.remove(m.ll.Back())
	}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ll.Len()
}

func (m *Memory) remove(el *list.Element) {
	m.ll.Remove(el)
	delete(m.items, el.Value.(*entry).key)
}
