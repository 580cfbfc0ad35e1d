package eventstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/eventapi/pkg/event"
)

// MemoryStore はスライスでイベントを保持するStore。
type MemoryStore struct {
	// mu はeventsとindexを保護する。
	mu sync.RWMutex
	// events は登録順のイベント。
	events []event.Event
	// index はIDからeventsの添字への対応。
	index map[string]int
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
	}
}

// Add はイベントを末尾に追記する。
func (s *MemoryStore) Add(_ context.Context, e event.Event) (event.Event, error) {
	e, err := prepare(e)
	if err != nil {
		return event.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.index[e.ID]; ok {
		return event.Event{}, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	s.index[e.ID] = len(s.events)
	s.events = append(s.events, e)
	return e, nil
}

// List は全イベントのコピーを登録順に返す。
func (s *MemoryStore) List(_ context.Context) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]event.Event, len(s.events))
	copy(events, s.events)
	return events, nil
}

// Get はIDに一致するイベントを返す。
func (s *MemoryStore) Get(_ context.Context, id string) (event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return event.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.events[i], nil
}

// Close は何もしない。
func (s *MemoryStore) Close() error {
	return nil
}
