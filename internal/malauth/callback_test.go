package malauth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCodeWaiterDeliverThenWait(t *testing.T) {
	waiter := NewCodeWaiter()
	waiter.Deliver("auth-code")

	code, err := waiter.Wait(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "auth-code" {
		t.Fatalf("expected delivered code, got %q", code)
	}
}

func TestCodeWaiterTimeout(t *testing.T) {
	waiter := NewCodeWaiter()

	_, err := waiter.Wait(context.Background(), 20*time.Millisecond)
	if !errors.Is(err, ErrAuthTimeout) {
		t.Fatalf("expected ErrAuthTimeout, got %v", err)
	}
}

func TestCodeWaiterContextCancel(t *testing.T) {
	waiter := NewCodeWaiter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := waiter.Wait(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCodeWaiterDropsExtraDeliveries(t *testing.T) {
	waiter := NewCodeWaiter()
	waiter.Deliver("first")
	waiter.Deliver("second")

	code, err := waiter.Wait(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "first" {
		t.Fatalf("expected first delivery to win, got %q", code)
	}
}
