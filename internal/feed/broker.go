package feed

import (
	"sync"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/google/uuid"
)

// Update is one ledger event pushed to live viewers of a customer: the
// appended entry together with the balance after it.
type Update struct {
	ShopID     uuid.UUID           `json:"shop_id"`
	CustomerID uuid.UUID           `json:"customer_id"`
	Entry      *entity.LedgerEntry `json:"entry"`
	TotalDue   int64               `json:"total_due"` // cents
	Origin     string              `json:"origin"`    // instance that produced it
}

// Broker fans ledger updates out to in-process subscribers, keyed by
// customer. Slow subscribers miss updates rather than block writers;
// a viewer that misses one re-reads the ledger on reconnect.
type Broker struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]map[chan Update]struct{}
}

// NewBroker creates a new update broker
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[uuid.UUID]map[chan Update]struct{}),
	}
}

// Subscribe registers a viewer for one customer's updates. The returned
// cancel function must be called when the viewer disconnects.
func (b *Broker) Subscribe(customerID uuid.UUID) (<-chan Update, func()) {
	ch := make(chan Update, 16)

	b.mu.Lock()
	if b.subs[customerID] == nil {
		b.subs[customerID] = make(map[chan Update]struct{})
	}
	b.subs[customerID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[customerID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, customerID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an update to every subscriber of its customer.
func (b *Broker) Publish(update Update) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[update.CustomerID] {
		select {
		case ch <- update:
		default:
			// Buffer full; the viewer catches up from the store.
		}
	}
}

// SubscriberCount reports the number of live viewers for a customer
func (b *Broker) SubscriberCount(customerID uuid.UUID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[customerID])
}
