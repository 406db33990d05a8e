package lock

import (
	"context"
	"log"
	"sync"
)

// KeyedMutex is the in-process locker: per-key FIFO waiting, suited to a
// single-process deployment where no network round-trip is needed. Each
// caller chains behind the previous holder's completion.
type KeyedMutex struct {
	mu    sync.Mutex
	tails map[string]chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{tails: make(map[string]chan struct{})}
}

func (m *KeyedMutex) WithLock(ctx context.Context, roomID string, fn func() error) error {
	done := make(chan struct{})
	m.mu.Lock()
	prev := m.tails[roomID]
	m.tails[roomID] = done
	m.mu.Unlock()

	release := func() {
		close(done)
		m.mu.Lock()
		if m.tails[roomID] == done {
			delete(m.tails, roomID)
		}
		m.mu.Unlock()
	}

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			// Pass the baton once the predecessor finishes so waiters
			// behind this slot are not stranded.
			go func() {
				<-prev
				release()
			}()
			log.Printf("lock wait abandoned room_id=%s error=%v", roomID, ctx.Err())
			return ErrLockTimeout
		}
	}
	defer release()
	return fn()
}
