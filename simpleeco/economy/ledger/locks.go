package ledger

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

type accountLocks struct {
	m *xsync.MapOf[uuid.UUID, *sync.Mutex]
}

func newAccountLocks() *accountLocks {
	return &accountLocks{m: xsync.NewMapOf[uuid.UUID, *sync.Mutex]()}
}

// lock acquires the mutex of every distinct id in byte order and returns the
// matching unlock.
func (a *accountLocks) lock(ids ...uuid.UUID) func() {
	if len(ids) == 2 && ids[0] == ids[1] {
		ids = ids[:1]
	}
	if len(ids) == 2 && bytes.Compare(ids[0][:], ids[1][:]) > 0 {
		ids = []uuid.UUID{ids[1], ids[0]}
	}

	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		mu, _ := a.m.LoadOrCompute(id, func() *sync.Mutex { return &sync.Mutex{} })
		mu.Lock()
		held = append(held, mu)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
