package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBrokerDeliversToSubscriber(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("session-1", 4)
	defer cancel()

	_ = broker.Publish(context.Background(), Event{SessionID: "session-1", Type: EventItem, Title: "A"})

	select {
	case event := <-events:
		if event.Title != "A" || event.Type != EventItem {
			t.Fatalf("unexpected event %+v", event)
		}
	default:
		t.Fatal("expected a buffered event")
	}
}

func TestBrokerIsolatesSessions(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("session-1", 4)
	defer cancel()

	_ = broker.Publish(context.Background(), Event{SessionID: "other", Type: EventItem})

	select {
	case event := <-events:
		t.Fatalf("event for another session leaked: %+v", event)
	default:
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("session-1", 1)
	defer cancel()

	_ = broker.Publish(context.Background(), Event{SessionID: "session-1", Title: "first"})
	_ = broker.Publish(context.Background(), Event{SessionID: "session-1", Title: "second"})

	event := <-events
	if event.Title != "first" {
		t.Fatalf("expected oldest event kept, got %q", event.Title)
	}
	select {
	case extra := <-events:
		t.Fatalf("overflow event should have been dropped, got %+v", extra)
	default:
	}
}

func TestBrokerCancelClosesChannel(t *testing.T) {
	broker := NewBroker()
	events, cancel := broker.Subscribe("session-1", 1)

	cancel()
	cancel() // double cancel must be safe

	if _, open := <-events; open {
		t.Fatal("expected channel closed after cancel")
	}

	// Publishing after all subscribers are gone must not panic.
	_ = broker.Publish(context.Background(), Event{SessionID: "session-1"})
}

func TestWebhookPublisherPostsEvent(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	publisher, err := NewWebhookPublisher(server.URL)
	if err != nil {
		t.Fatalf("new webhook publisher: %v", err)
	}

	if err := publisher.Publish(context.Background(), Event{SessionID: "s", Type: EventCompleted}); err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if received.SessionID != "s" || received.Type != EventCompleted {
		t.Fatalf("unexpected payload %+v", received)
	}
}

func TestWebhookPublisherRequiresURL(t *testing.T) {
	if _, err := NewWebhookPublisher("  "); err == nil {
		t.Fatal("expected error for empty url")
	}
}
