package infra_memory

import (
	"context"
	"slices"
	"sync"

	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feed "github.com/humanbelnik/pokerboard/internal/usecase/feed"
)

type MessageStore struct {
	boards *BoardStore

	mu       sync.RWMutex
	messages map[model.BoardCode][]model.Message
}

func NewMessageStore(boards *BoardStore) *MessageStore {
	return &MessageStore{
		boards:   boards,
		messages: make(map[model.BoardCode][]model.Message),
	}
}

func (s *MessageStore) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	if !s.boards.Exists(msg.BoardCode) {
		return model.Message{}, usecase_feed.ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.messages[msg.BoardCode]
	msg.Seq = int64(len(msgs)) + 1
	s.messages[msg.BoardCode] = append(msgs, msg)
	return msg, nil
}

func (s *MessageStore) ListByBoard(ctx context.Context, code model.BoardCode) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := slices.Clone(s.messages[code])
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}
