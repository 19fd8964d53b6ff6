package usecase_board

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/humanbelnik/pokerboard/internal/service/broker"
	"github.com/humanbelnik/pokerboard/internal/service/tally"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound       = errors.New("no such board")
	ErrAlreadyExists  = errors.New("board code already taken")
	ErrCodesExhausted = errors.New("no available board codes")
	ErrValidation     = errors.New("validation failed")
	ErrTransport      = errors.New("transport error")
)

//go:generate mockery --name=BoardRepository --output=./mocks/repository --filename=repository.go
type BoardRepository interface {
	// Create fails with ErrAlreadyExists when the code is taken.
	Create(ctx context.Context, board model.Board) error
	FindByCode(ctx context.Context, code model.BoardCode) (model.Board, error)

	// Every mutation below bumps the board revision and fails with ErrNotFound
	// when no record matches the code.
	UpdateContent(ctx context.Context, code model.BoardCode, patch model.ContentPatch) error
	AddParticipant(ctx context.Context, code model.BoardCode, name string) error
	RemoveParticipant(ctx context.Context, code model.BoardCode, name string) error
	SetVote(ctx context.Context, code model.BoardCode, name string, vote model.Vote) error
	ResetVotes(ctx context.Context, code model.BoardCode) error
}

//go:generate mockery --name=Publisher --output=./mocks/publisher --filename=publisher.go
type Publisher interface {
	Publish(ctx context.Context, u broker.Update) error
}

const (
	codeLen      = 6
	codeAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	codeRetries  = 3
)

var codePattern = regexp.MustCompile(`^[a-z0-9]{4,32}$`)

type Usecase struct {
	BoardRepository BoardRepository
	Publisher       Publisher

	tracer trace.Tracer
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(u *Usecase) {
		u.tracer = tracer
	}
}

func New(
	BoardRepository BoardRepository,
	Publisher Publisher,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		BoardRepository: BoardRepository,
		Publisher:       Publisher,
		tracer:          otel.Tracer("pokerboard/usecase/board"),
		logger:          slog.Default(),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Create opens a new board under code. Empty code means "pick one for me":
// random codes are tried until one is free.
func (u *Usecase) Create(ctx context.Context, code model.BoardCode) (model.Board, error) {
	ctx, span := u.tracer.Start(ctx, "board.Create")
	defer span.End()

	code = strings.ToLower(strings.TrimSpace(code))
	if code != model.EmptyBoardCode {
		if !codePattern.MatchString(code) {
			return model.Board{}, u.fail(span, ErrValidation)
		}
		span.SetAttributes(attribute.String("board.code", code))

		board, err := u.create(ctx, code)
		if err != nil {
			return model.Board{}, u.fail(span, err)
		}
		return board, nil
	}

	// Assuming that generated codes can conflict.
	for range codeRetries {
		code = u.buildCode()
		board, err := u.create(ctx, code)
		if errors.Is(err, ErrAlreadyExists) {
			u.logger.Debug("generated board code conflict", "code", code)
			continue
		}
		if err != nil {
			return model.Board{}, u.fail(span, err)
		}
		span.SetAttributes(attribute.String("board.code", code))
		return board, nil
	}
	return model.Board{}, u.fail(span, ErrCodesExhausted)
}

func (u *Usecase) create(ctx context.Context, code model.BoardCode) (model.Board, error) {
	board := model.Board{
		Code:         code,
		Participants: []string{},
		Votes:        map[string]model.Vote{},
		CreatedAt:    u.now().UTC(),
		Revision:     1,
	}
	if err := u.BoardRepository.Create(ctx, board); err != nil {
		return model.Board{}, translate(err)
	}

	u.logger.Info("board created", "code", code)
	return board, nil
}

func (u *Usecase) buildCode() string {
	var builder strings.Builder
	builder.Grow(codeLen)

	for range codeLen {
		builder.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}

	return builder.String()
}

func (u *Usecase) FindByCode(ctx context.Context, code model.BoardCode) (model.Board, error) {
	ctx, span := u.tracer.Start(ctx, "board.FindByCode",
		trace.WithAttributes(attribute.String("board.code", code)))
	defer span.End()

	board, err := u.BoardRepository.FindByCode(ctx, code)
	if err != nil {
		return model.Board{}, u.fail(span, translate(err))
	}
	return board, nil
}

// Tally is the server-side decision over the current participants' votes.
func (u *Usecase) Tally(ctx context.Context, code model.BoardCode) (tally.Result, error) {
	board, err := u.FindByCode(ctx, code)
	if err != nil {
		return tally.Result{}, err
	}
	return tally.ForBoard(board), nil
}

func (u *Usecase) UpdateContent(ctx context.Context, code model.BoardCode, patch model.ContentPatch) error {
	if patch.Empty() {
		return nil
	}
	return u.mutate(ctx, "board.UpdateContent", code, func(ctx context.Context) error {
		return u.BoardRepository.UpdateContent(ctx, code, patch)
	})
}

// AddParticipant is an idempotent union insert.
func (u *Usecase) AddParticipant(ctx context.Context, code model.BoardCode, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrValidation
	}
	return u.mutate(ctx, "board.AddParticipant", code, func(ctx context.Context) error {
		return u.BoardRepository.AddParticipant(ctx, code, name)
	}, attribute.String("participant.name", name))
}

// RemoveParticipant drops the name from the participant list.
// A vote already cast under that name stays in the votes mapping.
func (u *Usecase) RemoveParticipant(ctx context.Context, code model.BoardCode, name string) error {
	return u.mutate(ctx, "board.RemoveParticipant", code, func(ctx context.Context) error {
		return u.BoardRepository.RemoveParticipant(ctx, code, name)
	}, attribute.String("participant.name", name))
}

// SetVote upserts a single vote. The name is not checked against the participant list.
func (u *Usecase) SetVote(ctx context.Context, code model.BoardCode, name string, vote model.Vote) error {
	if !vote.Valid() {
		return ErrValidation
	}
	return u.mutate(ctx, "board.SetVote", code, func(ctx context.Context) error {
		return u.BoardRepository.SetVote(ctx, code, name, vote)
	}, attribute.String("participant.name", name))
}

// ResetVotes wipes every vote and starts a new round.
func (u *Usecase) ResetVotes(ctx context.Context, code model.BoardCode) error {
	return u.mutate(ctx, "board.ResetVotes", code, func(ctx context.Context) error {
		return u.BoardRepository.ResetVotes(ctx, code)
	})
}

// mutate runs a write, re-reads the whole record and publishes it as one snapshot.
func (u *Usecase) mutate(
	ctx context.Context,
	op string,
	code model.BoardCode,
	write func(ctx context.Context) error,
	attrs ...attribute.KeyValue,
) error {
	ctx, span := u.tracer.Start(ctx, op,
		trace.WithAttributes(append(attrs, attribute.String("board.code", code))...))
	defer span.End()

	if err := write(ctx); err != nil {
		return u.fail(span, translate(err))
	}

	board, err := u.BoardRepository.FindByCode(ctx, code)
	if err != nil {
		return u.fail(span, translate(err))
	}
	span.SetAttributes(attribute.Int64("board.revision", board.Revision))

	// The write already stands; a lost broadcast is repaired by the next one.
	if err := u.Publisher.Publish(ctx, broker.Update{
		Kind:     broker.KindBoard,
		Code:     code,
		Revision: board.Revision,
		Board:    &board,
	}); err != nil {
		span.RecordError(err)
		u.logger.Error("board snapshot publish failed", "code", code, "op", op, "error", err)
	}
	return nil
}

func (u *Usecase) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrTransport) {
		u.logger.Error("board store failure", "error", err)
	}
	return err
}

func translate(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists):
		return ErrAlreadyExists
	}
	return errors.Join(ErrTransport, err)
}
