package syncer

import "github.com/idilsaglam/todosync/internal/model"

// Items returns a copy of the current list.
func (s *Synchronizer) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Item{}, s.snapshot...)
}

// Subscribe returns a channel that immediately holds the current list and
// then receives the list after every change. A subscriber that falls behind
// only sees the newest list. The channel is closed by the returned cancel
// func or when Run exits.
func (s *Synchronizer) Subscribe() (<-chan []model.Item, func()) {
	ch := make(chan []model.Item, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	ch <- append([]model.Item{}, s.snapshot...)
	if s.subs != nil {
		s.subs[id] = ch
	} else {
		close(ch)
	}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// publish stores a fresh snapshot and hands it to every subscriber. Only the
// owner loop calls it, so the drain-then-send below never blocks.
func (s *Synchronizer) publish() {
	snap := append([]model.Item{}, s.items...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = snap
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- append([]model.Item{}, snap...)
	}
}

func (s *Synchronizer) closeSubs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subs = nil
}
