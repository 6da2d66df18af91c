package inventory

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/semaphore"
)

// itemLocks exclusión mutua por ítem dentro del proceso. Las entradas se crean bajo demanda
// y se eliminan cuando nadie las retiene ni las espera.
type itemLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	sem  *semaphore.Weighted
	refs int
}

func newItemLocks() *itemLocks {
	return &itemLocks{entries: make(map[string]*lockEntry)}
}

// acquire toma los bloqueos de todos los ítems en orden ascendente de ID.
// Si ctx termina antes, libera los ya tomados y devuelve ctx.Err().
func (l *itemLocks) acquire(ctx context.Context, ids []string) (func(), error) {
	keys := sortedUnique(ids)
	held := make([]string, 0, len(keys))
	for _, k := range keys {
		e := l.ref(k)
		if err := e.sem.Acquire(ctx, 1); err != nil {
			l.unref(k)
			l.releaseAll(held)
			return nil, err
		}
		held = append(held, k)
	}
	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

func (l *itemLocks) releaseAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		e := l.entries[keys[i]]
		l.mu.Unlock()
		e.sem.Release(1)
		l.unref(keys[i])
	}
}

func (l *itemLocks) ref(key string) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{sem: semaphore.NewWeighted(1)}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *itemLocks) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

func (l *itemLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
