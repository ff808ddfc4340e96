package feed

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	broker := NewBroker()
	customerID := uuid.New()

	first, cancelFirst := broker.Subscribe(customerID)
	second, cancelSecond := broker.Subscribe(customerID)
	defer cancelFirst()
	defer cancelSecond()

	broker.Publish(Update{CustomerID: customerID, TotalDue: 500})

	for _, ch := range []<-chan Update{first, second} {
		select {
		case update := <-ch:
			if update.TotalDue != 500 {
				t.Fatalf("expected total 500, got %d", update.TotalDue)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive update")
		}
	}
}

func TestBrokerScopesByCustomer(t *testing.T) {
	broker := NewBroker()
	watched := uuid.New()
	other := uuid.New()

	ch, cancel := broker.Subscribe(watched)
	defer cancel()

	broker.Publish(Update{CustomerID: other, TotalDue: 100})

	select {
	case <-ch:
		t.Fatalf("received update for a different customer")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBrokerCancelStopsDelivery(t *testing.T) {
	broker := NewBroker()
	customerID := uuid.New()

	ch, cancel := broker.Subscribe(customerID)
	cancel()

	broker.Publish(Update{CustomerID: customerID})

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatalf("received update after cancel")
		}
	case <-time.After(50 * time.Millisecond):
	}

	if broker.SubscriberCount(customerID) != 0 {
		t.Fatalf("expected no subscribers after cancel")
	}
}

func TestBrokerDoesNotBlockOnSlowSubscriber(t *testing.T) {
	broker := NewBroker()
	customerID := uuid.New()

	_, cancel := broker.Subscribe(customerID)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Nobody drains the channel; publishes past the buffer drop.
		for i := 0; i < 100; i++ {
			broker.Publish(Update{CustomerID: customerID, TotalDue: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a slow subscriber")
	}
}
