package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/supplysight/ragapi/internal/domain/jobModel"
)

// InMemoryConversationStore is the fallback conversation backend when redis
// is unavailable at startup.
type InMemoryConversationStore struct {
	mu            sync.RWMutex
	conversations map[string][]jobModel.Exchange
}

func NewInMemoryConversationStore() *InMemoryConversationStore {
	return &InMemoryConversationStore{
		conversations: make(map[string][]jobModel.Exchange),
	}
}

func (s *InMemoryConversationStore) ValidateConversationID(ctx context.Context, id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.conversations[id]
	return ok
}

func (s *InMemoryConversationStore) InitConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = make([]jobModel.Exchange, 0)
	return nil
}

func (s *InMemoryConversationStore) AppendExchange(ctx context.Context, id string, exchange jobModel.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[id] = append(s.conversations[id], exchange)
	return nil
}

func (s *InMemoryConversationStore) GetHistory(ctx context.Context, id string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exchanges := s.conversations[id]
	if len(exchanges) > historyWindow {
		exchanges = exchanges[len(exchanges)-historyWindow:]
	}
	history := make([]string, 0, len(exchanges))
	for _, e := range exchanges {
		if e.Question == "" && e.Answer == "" {
			continue
		}
		history = append(history, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
	}
	return history, nil
}

func (s *InMemoryConversationStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, id)
	return nil
}
