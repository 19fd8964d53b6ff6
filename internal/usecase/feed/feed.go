package usecase_feed

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/humanbelnik/pokerboard/internal/service/broker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrNotFound   = errors.New("no such board")
	ErrValidation = errors.New("validation failed")
	ErrTransport  = errors.New("transport error")
)

const MaxMessageLen = 2000

//go:generate mockery --name=MessageRepository --output=./mocks/repository --filename=repository.go
type MessageRepository interface {
	// Append stores msg and returns it with its board-scoped sequence number set.
	// Fails with ErrNotFound when the board does not exist.
	Append(ctx context.Context, msg model.Message) (model.Message, error)
	// ListByBoard returns messages ordered by sequence.
	ListByBoard(ctx context.Context, code model.BoardCode) ([]model.Message, error)
}

//go:generate mockery --name=Publisher --output=./mocks/publisher --filename=publisher.go
type Publisher interface {
	Publish(ctx context.Context, u broker.Update) error
}

type Usecase struct {
	MessageRepository MessageRepository
	Publisher         Publisher

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
	MessageRepository MessageRepository,
	Publisher Publisher,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		MessageRepository: MessageRepository,
		Publisher:         Publisher,
		tracer:            otel.Tracer("pokerboard/usecase/feed"),
		logger:            slog.Default(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Post appends a message and broadcasts the whole accumulated list.
func (u *Usecase) Post(ctx context.Context, code model.BoardCode, text string) (model.Message, error) {
	ctx, span := u.tracer.Start(ctx, "feed.Post",
		trace.WithAttributes(attribute.String("board.code", code)))
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxMessageLen {
		return model.Message{}, u.fail(span, ErrValidation)
	}

	msg, err := u.MessageRepository.Append(ctx, model.Message{
		ID:        uuid.New(),
		BoardCode: code,
		Text:      text,
		PostedAt:  u.now().UTC(),
	})
	if err != nil {
		return model.Message{}, u.fail(span, translate(err))
	}

	msgs, err := u.MessageRepository.ListByBoard(ctx, code)
	if err != nil {
		return model.Message{}, u.fail(span, translate(err))
	}

	revision := msg.Seq
	if n := len(msgs); n > 0 {
		revision = max(revision, msgs[n-1].Seq)
	}
	span.SetAttributes(attribute.Int64("feed.seq", revision))

	if err := u.Publisher.Publish(ctx, broker.Update{
		Kind:     broker.KindFeed,
		Code:     code,
		Revision: revision,
		Messages: msgs,
	}); err != nil {
		span.RecordError(err)
		u.logger.Error("feed snapshot publish failed", "code", code, "error", err)
	}
	return msg, nil
}

func (u *Usecase) List(ctx context.Context, code model.BoardCode) ([]model.Message, error) {
	ctx, span := u.tracer.Start(ctx, "feed.List",
		trace.WithAttributes(attribute.String("board.code", code)))
	defer span.End()

	msgs, err := u.MessageRepository.ListByBoard(ctx, code)
	if err != nil {
		return nil, u.fail(span, translate(err))
	}
	return msgs, nil
}

func (u *Usecase) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, ErrTransport) {
		u.logger.Error("message feed failure", "error", err)
	}
	return err
}

func translate(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrValidation):
		return ErrValidation
	}
	return errors.Join(ErrTransport, err)
}
