// Package notify delivers setting change events to subscribers.
//
// The registry publishes one Change after every successful mutation. Observers
// may subscribe to all changes or to a single item name.
package notify

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// ChangeType represents the kind of mutation.
type ChangeType int

const (
	// ChangeSet indicates an existing value was changed in place.
	ChangeSet ChangeType = iota

	// ChangeMaterialize indicates an inherited scoped field became an
	// override as part of the change.
	ChangeMaterialize

	// ChangeReset indicates a scoped override was dropped.
	ChangeReset
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeMaterialize:
		return "materialize"
	case ChangeReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Change describes one persisted mutation.
type Change struct {
	// ID uniquely identifies the event.
	ID string

	// Scope is the scope id; -1 for the global store.
	Scope int

	// Item is the setting item name.
	Item string

	// Type is the kind of change.
	Type ChangeType

	// Values is the change request as received.
	Values []string

	// Value is the effective value after the change.
	Value json.RawMessage
}

// Observer is called when a change is published.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	allObservers  map[uint64]Observer
	itemObservers map[string]map[uint64]Observer
	nextID        uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery through a buffer of the given size.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		allObservers:  make(map[uint64]Observer),
		itemObservers: make(map[string]map[uint64]Observer),
		done:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

// Subscribe registers an observer for every change.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.allObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeItem registers an observer for changes to one item, in any scope.
func (n *Notifier) SubscribeItem(item string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.itemObservers[item] == nil {
		n.itemObservers[item] = make(map[uint64]Observer)
	}
	n.itemObservers[item][id] = observer

	return &Subscription{id: id, notifier: n}
}

// Publish sends a change to all matching observers. An empty ID is filled in.
// Publishing on a closed notifier is a no-op.
func (n *Notifier) Publish(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if change.ID == "" {
		change.ID = uuid.NewString()
	}

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliver(change)
}

// Close shuts down the notifier, delivering any buffered changes first.
// It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.allObservers, id)
	for item, observers := range n.itemObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.itemObservers, item)
		}
	}
}

func (n *Notifier) deliver(change Change) {
	n.mu.RLock()
	observers := make([]Observer, 0, len(n.allObservers))
	for _, obs := range n.allObservers {
		observers = append(observers, obs)
	}
	for _, obs := range n.itemObservers[change.Item] {
		observers = append(observers, obs)
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliver(change)
		case <-n.done:
			for {
				select {
				case change := <-n.buffer:
					n.deliver(change)
				default:
					return
				}
			}
		}
	}
}
