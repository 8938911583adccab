package locks

import "sync"

// Keyed hands out one mutex per key so callers can serialize work on a single
// auction while unrelated auctions proceed in parallel. Entries are
// ref-counted and dropped once the last holder releases, so idle keys do not
// accumulate.
type Keyed struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	refs int
	mu   sync.Mutex
}

func NewKeyed() *Keyed {
	return &Keyed{entries: make(map[string]*entry)}
}

// Lock blocks until the key's mutex is held and returns the release func.
func (k *Keyed) Lock(key string) (unlock func()) {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
