package sessionstate

import (
	"context"
	"sync"
)

type subscription struct {
	ch   chan Snapshot
	once sync.Once
}

func (s *subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

// offer replaces any unread snapshot with snap. Callers hold the store lock,
// so there is a single sender at a time.
func (s *subscription) offer(snap Snapshot) {
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snap:
	default:
	}
}

// Subscribe registers a coalescing subscription. The current snapshot is
// delivered first. On a closed store the returned channel is already closed.
func (s *Store) Subscribe(ctx context.Context) <-chan Snapshot {
	sub := &subscription{ch: make(chan Snapshot, 1)}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.close()
		return sub.ch
	}
	s.subs[sub] = struct{}{}
	sub.offer(s.snapshotLocked())
	s.mu.Unlock()

	if ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			s.unsubscribe(sub)
		}()
	}
	return sub.ch
}

func (s *Store) unsubscribe(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
	sub.close()
}

func (s *Store) publishLocked() {
	snap := s.snapshotLocked()
	for sub := range s.subs {
		sub.offer(snap)
	}
}
