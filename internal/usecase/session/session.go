package usecase_session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/humanbelnik/pokerboard/internal/service/broker"
	"github.com/humanbelnik/pokerboard/internal/service/tally"
	usecase_board "github.com/humanbelnik/pokerboard/internal/usecase/board"
	usecase_feed "github.com/humanbelnik/pokerboard/internal/usecase/feed"
)

var (
	ErrNotFound   = errors.New("wrong board code")
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("operation not allowed for this role")
	ErrTransport  = errors.New("transport error")
	ErrNotOpen    = errors.New("session is not open")
)

type Role string

const (
	RoleFacilitator Role = "facilitator"
	RoleParticipant Role = "participant"
)

func (r Role) Valid() bool {
	return r == RoleFacilitator || r == RoleParticipant
}

type State string

const (
	StateJoining  State = "joining"
	StateHidden   State = "hidden"
	StateRevealed State = "revealed"
)

type BoardStore interface {
	FindByCode(ctx context.Context, code model.BoardCode) (model.Board, error)
	UpdateContent(ctx context.Context, code model.BoardCode, patch model.ContentPatch) error
	AddParticipant(ctx context.Context, code model.BoardCode, name string) error
	RemoveParticipant(ctx context.Context, code model.BoardCode, name string) error
	SetVote(ctx context.Context, code model.BoardCode, name string, vote model.Vote) error
	ResetVotes(ctx context.Context, code model.BoardCode) error
}

type Feed interface {
	Post(ctx context.Context, code model.BoardCode, text string) (model.Message, error)
	List(ctx context.Context, code model.BoardCode) ([]model.Message, error)
}

type Subscriber interface {
	Subscribe(code model.BoardCode) *broker.Subscription
}

// Session is one viewer's window onto a board. Mutations go through the
// store; what the viewer sees only changes when the pushed snapshot arrives.
type Session struct {
	ID   uuid.UUID
	Code model.BoardCode
	Role Role

	store      BoardStore
	feed       Feed
	subscriber Subscriber
	logger     *slog.Logger

	mu       sync.Mutex
	state    State
	name     string
	board    model.Board
	messages []model.Message
	feedRev  int64
	decision *tally.Result
	sub      *broker.Subscription
}

type Option func(*Session)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

func New(
	code model.BoardCode,
	role Role,
	store BoardStore,
	feed Feed,
	subscriber Subscriber,
	opts ...Option,
) *Session {
	s := &Session{
		ID:         uuid.New(),
		Code:       code,
		Role:       role,
		store:      store,
		feed:       feed,
		subscriber: subscriber,
		logger:     slog.Default(),
		state:      StateJoining,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads the board and its feed and starts listening for snapshots.
// A wrong code yields ErrNotFound and leaves nothing subscribed.
func (s *Session) Open(ctx context.Context) error {
	if !s.Role.Valid() {
		return ErrValidation
	}

	// Subscribe before reading so nothing published in between is lost;
	// anything older than the read is dropped by revision.
	sub := s.subscriber.Subscribe(s.Code)

	board, err := s.store.FindByCode(ctx, s.Code)
	if err != nil {
		sub.Close()
		return translate(err)
	}
	msgs, err := s.feed.List(ctx, s.Code)
	if err != nil {
		sub.Close()
		return translate(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sub = sub
	s.board = board
	s.messages = msgs
	if n := len(msgs); n > 0 {
		s.feedRev = msgs[n-1].Seq
	}
	if s.Role == RoleFacilitator {
		s.state = StateHidden
	}

	s.logger.Info("session opened",
		"session_id", s.ID,
		"code", s.Code,
		"role", s.Role,
		"revision", board.Revision)
	return nil
}

// Join claims a display name on the board. Names are not unique: two viewers
// joining as the same name share one participant entry and one vote.
func (s *Session) Join(ctx context.Context, name string) error {
	if s.Role != RoleParticipant {
		return ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrValidation
	}
	if err := s.opened(); err != nil {
		return err
	}

	if err := s.store.AddParticipant(ctx, s.Code, name); err != nil {
		return translate(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.name = name
	if s.state == StateJoining {
		s.state = StateHidden
	}
	return nil
}

func (s *Session) Vote(ctx context.Context, value model.Vote) error {
	s.mu.Lock()
	name := s.name
	s.mu.Unlock()

	if name == "" || !value.Valid() {
		return ErrValidation
	}
	if err := s.store.SetVote(ctx, s.Code, name, value); err != nil {
		return translate(err)
	}
	return nil
}

// Reveal shows every vote and the decision in this view only.
func (s *Session) Reveal() error {
	if s.Role != RoleFacilitator {
		return ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateRevealed
	res := tally.ForBoard(s.board)
	s.decision = &res
	return nil
}

func (s *Session) Hide() error {
	if s.Role != RoleFacilitator {
		return ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateHidden
	s.decision = nil
	return nil
}

// Reset clears the votes for everyone. Each session hides again once it
// observes the new round.
func (s *Session) Reset(ctx context.Context) error {
	if s.Role != RoleFacilitator {
		return ErrForbidden
	}
	if err := s.store.ResetVotes(ctx, s.Code); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Session) UpdateContent(ctx context.Context, patch model.ContentPatch) error {
	if s.Role != RoleFacilitator {
		return ErrForbidden
	}
	if err := s.store.UpdateContent(ctx, s.Code, patch); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Session) RemoveParticipant(ctx context.Context, name string) error {
	if s.Role != RoleFacilitator {
		return ErrForbidden
	}
	if err := s.store.RemoveParticipant(ctx, s.Code, name); err != nil {
		return translate(err)
	}
	return nil
}

func (s *Session) Post(ctx context.Context, text string) error {
	if _, err := s.feed.Post(ctx, s.Code, text); err != nil {
		return translate(err)
	}
	return nil
}

// Apply folds a pushed snapshot into the view. It reports whether the view
// changed; snapshots older than what the session already holds are ignored.
func (s *Session) Apply(u broker.Update) bool {
	if u.Code != s.Code {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch u.Kind {
	case broker.KindBoard:
		if u.Board == nil || u.Revision <= s.board.Revision {
			return false
		}
		roundChanged := u.Board.Round != s.board.Round
		s.board = u.Board.Clone()

		if roundChanged && s.state == StateRevealed {
			s.state = StateHidden
			s.decision = nil
		}
		if s.state == StateRevealed {
			res := tally.ForBoard(s.board)
			s.decision = &res
		}
		return true

	case broker.KindFeed:
		if u.Revision <= s.feedRev {
			return false
		}
		s.messages = u.Messages
		s.feedRev = u.Revision
		return true
	}
	return false
}

// Run applies snapshots from the subscription until ctx is done or the
// session is closed, rendering the view after every applied snapshot.
func (s *Session) Run(ctx context.Context, render func(View)) error {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()
	if sub == nil {
		return ErrNotOpen
	}

	for u := range sub.All(ctx) {
		if s.Apply(u) {
			render(s.View())
		}
	}
	return nil
}

// Close releases the subscription. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
		s.logger.Info("session closed", "session_id", s.ID, "code", s.Code)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.name
}

func (s *Session) opened() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sub == nil {
		return ErrNotOpen
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, usecase_board.ErrNotFound), errors.Is(err, usecase_feed.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, usecase_board.ErrValidation), errors.Is(err, usecase_feed.ErrValidation):
		return ErrValidation
	}
	return errors.Join(ErrTransport, err)
}
