package progress

import (
	"context"
	"sync"

	"github.com/mpetrov/anisync/internal/models"
)

const (
	EventItem      = "item"
	EventCompleted = "completed"
	EventError     = "error"
)

// Event is one progress notification for a sync session.
type Event struct {
	SessionID string                 `json:"sessionId"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title,omitempty"`
	Current   int                    `json:"current,omitempty"`
	Total     int                    `json:"total,omitempty"`
	Result    *models.SyncItemResult `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Publisher delivers progress events. Delivery is best effort; sync
// correctness never depends on it.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error { return nil }

// Fanout publishes to every wrapped publisher, ignoring individual failures.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, event Event) error {
	for _, publisher := range f {
		_ = publisher.Publish(ctx, event)
	}
	return nil
}

// Broker is an in-process pub/sub channel for live progress. Subscribers
// that fall behind miss events rather than blocking the sync worker.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan Event
	nextID int
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[int]chan Event{}}
}

// Subscribe registers a listener for one session. The returned cancel
// function must be called to release the channel.
func (b *Broker) Subscribe(sessionID string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = map[int]chan Event{}
	}
	id := b.nextID
	b.nextID++
	b.subs[sessionID][id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if listeners, ok := b.subs[sessionID]; ok {
			if _, ok := listeners[id]; ok {
				delete(listeners, id)
				close(ch)
			}
			if len(listeners) == 0 {
				delete(b.subs, sessionID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Broker) Publish(_ context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[event.SessionID] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}
