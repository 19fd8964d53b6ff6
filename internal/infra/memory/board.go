package infra_memory

import (
	"context"
	"slices"
	"sync"

	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_board "github.com/humanbelnik/pokerboard/internal/usecase/board"
)

// BoardStore keeps boards in process memory. Records are cloned on the way
// in and out so callers never share maps with the store.
type BoardStore struct {
	mu     sync.RWMutex
	boards map[model.BoardCode]*model.Board
}

func NewBoardStore() *BoardStore {
	return &BoardStore{
		boards: make(map[model.BoardCode]*model.Board),
	}
}

func (s *BoardStore) Create(ctx context.Context, board model.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.boards[board.Code]; ok {
		return usecase_board.ErrAlreadyExists
	}
	b := board.Clone()
	if b.Revision == 0 {
		b.Revision = 1
	}
	s.boards[b.Code] = &b
	return nil
}

func (s *BoardStore) FindByCode(ctx context.Context, code model.BoardCode) (model.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[code]
	if !ok {
		return model.Board{}, usecase_board.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *BoardStore) Exists(code model.BoardCode) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.boards[code]
	return ok
}

func (s *BoardStore) UpdateContent(ctx context.Context, code model.BoardCode, patch model.ContentPatch) error {
	return s.update(code, func(b *model.Board) {
		patch.Apply(b)
	})
}

func (s *BoardStore) AddParticipant(ctx context.Context, code model.BoardCode, name string) error {
	return s.update(code, func(b *model.Board) {
		if !b.HasParticipant(name) {
			b.Participants = append(b.Participants, name)
		}
	})
}

func (s *BoardStore) RemoveParticipant(ctx context.Context, code model.BoardCode, name string) error {
	return s.update(code, func(b *model.Board) {
		b.Participants = slices.DeleteFunc(b.Participants, func(p string) bool {
			return p == name
		})
	})
}

func (s *BoardStore) SetVote(ctx context.Context, code model.BoardCode, name string, vote model.Vote) error {
	return s.update(code, func(b *model.Board) {
		if b.Votes == nil {
			b.Votes = make(map[string]model.Vote)
		}
		b.Votes[name] = vote
	})
}

func (s *BoardStore) ResetVotes(ctx context.Context, code model.BoardCode) error {
	return s.update(code, func(b *model.Board) {
		b.Votes = make(map[string]model.Vote)
		b.Round++
	})
}

func (s *BoardStore) update(code model.BoardCode, fn func(b *model.Board)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.boards[code]
	if !ok {
		return usecase_board.ErrNotFound
	}
	fn(b)
	b.Revision++
	return nil
}
