package cache

import (
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Store keeps the latest decoded result of every contract read, keyed by
// Key. It is only ever mutated by the read-through path (Set) and by
// InvalidatePrefix. Readers always see the latest value.
type Store struct {
	mu         sync.RWMutex
	data       map[string]interface{}
	generation uint64

	subMu   sync.Mutex
	subs    map[uint64]func(prefix string)
	nextSub uint64
}

func New() *Store {
	return &Store{
		data: map[string]interface{}{},
		subs: map[uint64]func(prefix string){},
	}
}

func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, found := s.data[key]
	return v, found
}

// Generation changes every time something is invalidated. A read started at
// generation g must be stored with SetAt(key, v, g) so a result fetched
// before an invalidation can't resurrect stale data.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// SetAt stores v unless an invalidation happened since generation gen.
func (s *Store) SetAt(key string, v interface{}, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.data[key] = v
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// InvalidatePrefix drops every key starting with prefix and notifies the
// subscribers, even when nothing was cached under it, so views that never
// read the key yet still refresh. It returns the number of dropped keys.
func (s *Store) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	n := 0
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
			n++
		}
	}
	s.generation++
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"component": "cache",
		"prefix":    prefix,
		"dropped":   n,
	}).Debug("invalidated")

	s.subMu.Lock()
	subs := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(prefix)
	}
	return n
}

// Subscribe registers fn to be called after every invalidation. fn runs on
// the invalidating goroutine and must not block.
func (s *Store) Subscribe(fn func(prefix string)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}
