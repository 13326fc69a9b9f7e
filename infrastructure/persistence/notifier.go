package persistence

import (
	"sync"

	"github.com/daybook-dev/daybook/domain/memory"
)

// notifier fans embedding-store change events out to subscribers.
// Callbacks run synchronously on the mutating goroutine, so they must be
// quick and must not call back into the store.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(memory.ChangeEvent)
}

func newNotifier() *notifier {
	return &notifier{subs: make(map[int]func(memory.ChangeEvent))}
}

// subscribe registers fn and returns its cancel func.
func (n *notifier) subscribe(fn func(memory.ChangeEvent)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// publish delivers ev to every current subscriber.
func (n *notifier) publish(ev memory.ChangeEvent) {
	n.mu.Lock()
	fns := make([]func(memory.ChangeEvent), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}
