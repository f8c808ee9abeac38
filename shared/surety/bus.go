package surety

import (
	"sync"

	"github.com/cx-tal-miterani/flight-surety-system/shared/models"
	"github.com/sirupsen/logrus"
)

// Handler receives published events.
type Handler func(models.Event)

// Filter selects events. Zero fields match everything.
type Filter struct {
	Types    []models.EventType
	FlightID string
}

// Matches reports whether ev passes the filter.
func (f Filter) Matches(ev models.Event) bool {
	if f.FlightID != "" && ev.FlightID != f.FlightID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == ev.Type {
			return true
		}
	}
	return false
}

type subscription struct {
	id      uint64
	filter  Filter
	handler Handler
	once    bool
}

// Bus delivers committed events to subscribers and keeps a bounded history.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*subscription

	history []models.Event
	head    int
	count   int

	log logrus.FieldLogger
}

// NewBus creates a bus remembering the last size events.
func NewBus(size int, log logrus.FieldLogger) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{
		history: make([]models.Event, size),
		log:     log,
	}
}

// Subscribe registers handler for every event matching filter until the
// returned func is called.
func (b *Bus) Subscribe(filter Filter, handler Handler) func() {
	return b.add(filter, handler, false)
}

// SubscribeOnce registers handler for the first event matching filter only.
func (b *Bus) SubscribeOnce(filter Filter, handler Handler) func() {
	return b.add(filter, handler, true)
}

func (b *Bus) add(filter Filter, handler Handler, once bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscription{id: b.nextID, filter: filter, handler: handler, once: once}
	b.subs = append(b.subs, sub)

	return func() { b.remove(sub.id) }
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Recent returns up to n of the latest events, oldest first.
func (b *Bus) Recent(n int) []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 || n > b.count {
		n = b.count
	}
	out := make([]models.Event, n)
	size := len(b.history)
	start := (b.head - n + size) % size
	for i := 0; i < n; i++ {
		out[i] = b.history[(start+i)%size]
	}
	return out
}

func (b *Bus) publish(events []models.Event) {
	for _, ev := range events {
		for _, h := range b.record(ev) {
			b.deliver(h, ev)
		}
	}
}

// record stores ev and returns the handlers it must reach. One-shot
// subscriptions are removed before their handler runs.
func (b *Bus) record(ev models.Event) []Handler {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.history[b.head] = ev
	b.head = (b.head + 1) % len(b.history)
	if b.count < len(b.history) {
		b.count++
	}

	var handlers []Handler
	kept := b.subs[:0]
	for _, s := range b.subs {
		if !s.filter.Matches(ev) {
			kept = append(kept, s)
			continue
		}
		handlers = append(handlers, s.handler)
		if !s.once {
			kept = append(kept, s)
		}
	}
	for i := len(kept); i < len(b.subs); i++ {
		b.subs[i] = nil
	}
	b.subs = kept
	return handlers
}

func (b *Bus) deliver(h Handler, ev models.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(logrus.Fields{
				"event": ev.Type,
				"seq":   ev.Seq,
				"panic": r,
			}).Error("event handler panicked")
		}
	}()
	h(ev)
}
