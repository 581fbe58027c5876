package store

import (
	"sync"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

type watchers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(ports.StorageChange)
}

func (w *watchers) add(fn func(ports.StorageChange)) ports.Subscription {
	if fn == nil {
		return ports.SubscriptionFunc(nil)
	}
	w.mu.Lock()
	if w.fns == nil {
		w.fns = make(map[int]func(ports.StorageChange))
	}
	w.nextID++
	id := w.nextID
	w.fns[id] = fn
	w.mu.Unlock()

	return ports.SubscriptionFunc(func() {
		w.mu.Lock()
		delete(w.fns, id)
		w.mu.Unlock()
	})
}

func (w *watchers) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.fns)
}

func (w *watchers) notify(change ports.StorageChange) {
	w.mu.Lock()
	fns := make([]func(ports.StorageChange), 0, len(w.fns))
	for _, fn := range w.fns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
