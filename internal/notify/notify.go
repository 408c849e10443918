// Package notify provides fire-and-forget event notification between editor
// components.
//
// Events are addressed by dot-separated topics. An observer subscribed to a
// topic also receives events for its child topics, so "history" receives
// "history.restored". Observers never return values; a slow or failing
// observer cannot affect the publisher.
package notify

import (
	"sync"
	"time"
)

// Event is a single notification.
type Event struct {
	// Topic is the dot-separated event name.
	Topic string

	// Source identifies the publisher (e.g. a surface ID).
	Source string

	// Payload carries topic-specific data (may be nil).
	Payload any

	// Time is when the event was published.
	Time time.Time
}

// Observer is called when a matching event is published.
type Observer func(event Event)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	topic    string
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Topic returns the subscribed topic; empty for global subscriptions.
func (s *Subscription) Topic() string {
	return s.topic
}

// Notifier manages event subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Global observers that receive all events
	globalObservers map[uint64]Observer

	// Topic-specific observers
	topicObservers map[string]map[uint64]Observer

	// Next subscription ID
	nextID uint64

	// Whether to deliver synchronously or asynchronously
	async bool

	// Buffer for async delivery
	buffer chan Event

	// Done channel for shutdown
	done chan struct{}

	// Wait group for async goroutine
	wg sync.WaitGroup

	// Closed flag for idempotent Close
	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous delivery.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Event, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers: make(map[uint64]Observer),
		topicObservers:  make(map[string]map[uint64]Observer),
		done:            make(chan struct{}),
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

// Subscribe registers an observer for all events.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeTopic registers an observer for a topic and its children.
func (n *Notifier) SubscribeTopic(topic string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	if n.topicObservers[topic] == nil {
		n.topicObservers[topic] = make(map[uint64]Observer)
	}
	n.topicObservers[topic][id] = observer

	return &Subscription{id: id, topic: topic, notifier: n}
}

// Publish sends an event to all matching observers.
// Publishing on a closed notifier is a no-op.
func (n *Notifier) Publish(event Event) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if event.Time.IsZero() {
		event.Time = time.Now()
	}

	if n.async {
		select {
		case n.buffer <- event:
		case <-n.done:
		}
		return
	}

	n.deliver(event)
}

// PublishTopic is a convenience method for events without a source.
func (n *Notifier) PublishTopic(topic string, payload any) {
	n.Publish(Event{Topic: topic, Payload: payload})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
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

// unsubscribe removes an observer by ID.
func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for topic, observers := range n.topicObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.topicObservers, topic)
		}
	}
}

// deliver sends an event to all matching observers.
func (n *Notifier) deliver(event Event) {
	n.mu.RLock()

	var observers []Observer
	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}
	for topic, topicObs := range n.topicObservers {
		if topic == event.Topic || isParentTopic(topic, event.Topic) {
			for _, obs := range topicObs {
				observers = append(observers, obs)
			}
		}
	}

	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(event)
	}
}

// processAsync handles asynchronous delivery.
func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case event := <-n.buffer:
			n.deliver(event)
		case <-n.done:
			// Drain remaining buffered events
			for {
				select {
				case event := <-n.buffer:
					n.deliver(event)
				default:
					return
				}
			}
		}
	}
}

// isParentTopic checks if parent is a parent topic of child.
// e.g., "history" is parent of "history.restored".
func isParentTopic(parent, child string) bool {
	if len(parent) >= len(child) {
		return false
	}
	if parent == "" {
		return true
	}
	return child[:len(parent)] == parent && child[len(parent)] == '.'
}
