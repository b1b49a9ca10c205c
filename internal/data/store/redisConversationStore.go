package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supplysight/ragapi/internal/config"
	"github.com/supplysight/ragapi/internal/data/redisStore"
	"github.com/supplysight/ragapi/internal/domain/jobModel"
	"github.com/supplysight/ragapi/pkg/logx"
)

// historyWindow caps how many past exchanges are replayed to the provider.
const historyWindow = 5

type RedisConversationStore struct {
	store  *redisStore.Store
	ttl    time.Duration
	logger *logx.Logger
}

func NewRedisConversationStore(s *redisStore.Store, ttl time.Duration) *RedisConversationStore {
	return &RedisConversationStore{
		store:  s,
		ttl:    ttl,
		logger: logx.New("conversation_store"),
	}
}

func (s *RedisConversationStore) ValidateConversationID(ctx context.Context, id string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey), "conversationId", id)

	found, err := s.store.Exists(ctx, id)
	if err != nil && !s.store.IsNil(err) {
		log.Error("could not check conversation id", "error", err)
		return false
	}
	return found
}

func (s *RedisConversationStore) InitConversation(ctx context.Context, id string) error {
	if err := s.store.Del(ctx, id); err != nil && !s.store.IsNil(err) {
		return err
	}
	// a marker entry so Exists sees the conversation before its first answer
	return s.push(ctx, id, jobModel.Exchange{})
}

func (s *RedisConversationStore) AppendExchange(ctx context.Context, id string, exchange jobModel.Exchange) error {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey), "conversationId", id)
	if err := s.push(ctx, id, exchange); err != nil {
		log.Error("could not append exchange", "error", err)
		return err
	}
	log.Debug("appended exchange")
	return nil
}

func (s *RedisConversationStore) push(ctx context.Context, id string, exchange jobModel.Exchange) error {
	data, err := json.Marshal(exchange)
	if err != nil {
		return err
	}
	if err := s.store.ListPush(ctx, id, data); err != nil {
		return err
	}
	return s.store.Expire(ctx, id, s.ttl)
}

// GetHistory returns up to the last historyWindow exchanges rendered as
// question/answer lines, oldest first.
func (s *RedisConversationStore) GetHistory(ctx context.Context, id string) ([]string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TraceIDKey), "conversationId", id)

	entries, err := s.store.ListTail(ctx, id, historyWindow)
	if err != nil {
		log.Error("could not read history", "error", err)
		return nil, err
	}

	history := make([]string, 0, len(entries))
	for _, raw := range entries {
		var e jobModel.Exchange
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Warn("skipping undecodable history entry", "error", err)
			continue
		}
		if e.Question == "" && e.Answer == "" {
			continue
		}
		history = append(history, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
	}
	return history, nil
}

func (s *RedisConversationStore) DeleteConversation(ctx context.Context, id string) error {
	return s.store.Del(ctx, id)
}
