package ledger

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ellavondegurechaff/simpleeco/simpleeco/economy/store"
)

// BalanceChange is published after every successful balance mutation.
type BalanceChange struct {
	Account uuid.UUID
	Kind    store.Kind
	Old     decimal.Decimal
	New     decimal.Decimal
	At      time.Time
}

func (c BalanceChange) Delta() decimal.Decimal {
	return c.New.Sub(c.Old)
}

// Notifier fans balance changes out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the change.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[int]chan BalanceChange
	nextID int
	buffer int
	closed bool
}

func NewNotifier(buffer int) *Notifier {
	return &Notifier{subs: make(map[int]chan BalanceChange), buffer: buffer}
}

// Subscribe returns a channel of changes and a function that unsubscribes and
// closes it.
func (n *Notifier) Subscribe() (<-chan BalanceChange, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch := make(chan BalanceChange, n.buffer)
	if n.closed {
		close(ch)
		return ch, func() {}
	}

	id := n.nextID
	n.nextID++
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if sub, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(sub)
			}
		})
	}
}

func (n *Notifier) Publish(change BalanceChange) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subs {
		select {
		case ch <- change:
		default:
			slog.Debug("Dropped balance change for slow subscriber",
				slog.String("type", "eco"),
				slog.String("account", change.Account.String()),
				slog.String("kind", change.Kind.String()))
		}
	}
}

func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
