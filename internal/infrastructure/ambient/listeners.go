package ambient

import (
	"sync"

	"github.com/alexisbeaulieu97/prism/internal/ports"
)

// listeners is a small registry of change callbacks keyed by id.
type listeners struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(bool)
}

func (l *listeners) add(fn func(bool)) ports.Subscription {
	if fn == nil {
		return ports.SubscriptionFunc(nil)
	}
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(bool))
	}
	l.nextID++
	id := l.nextID
	l.fns[id] = fn
	l.mu.Unlock()

	return ports.SubscriptionFunc(func() {
		l.mu.Lock()
		delete(l.fns, id)
		l.mu.Unlock()
	})
}

func (l *listeners) notify(dark bool) {
	l.mu.Lock()
	fns := make([]func(bool), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(dark)
	}
}
