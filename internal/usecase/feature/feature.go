package usecase_feature

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
)

var (
	ErrNotFound     = errors.New("no such feature")
	ErrValidation   = errors.New("validation failed")
	ErrAlreadyVoted = errors.New("already voted for this feature")
	ErrTransport    = errors.New("transport error")
)

const maxNameLen = 200

//go:generate mockery --name=FeatureRepository --output=./mocks/repository --filename=repository.go
type FeatureRepository interface {
	Create(ctx context.Context, f model.Feature) error
	List(ctx context.Context) ([]model.Feature, error)
	// AddVotes atomically adds delta to the score and returns the updated feature.
	AddVotes(ctx context.Context, id uuid.UUID, delta int) (model.Feature, error)
}

// VoteLock remembers which session token already voted for which feature.
//
//go:generate mockery --name=VoteLock --output=./mocks/votelock --filename=votelock.go
type VoteLock interface {
	// Acquire returns false when the token already holds a vote for the feature.
	Acquire(ctx context.Context, token string, id uuid.UUID) (bool, error)
	Release(ctx context.Context, token string, id uuid.UUID) error
}

type Usecase struct {
	FeatureRepository FeatureRepository
	VoteLock          VoteLock

	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func New(
	FeatureRepository FeatureRepository,
	VoteLock VoteLock,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		FeatureRepository: FeatureRepository,
		VoteLock:          VoteLock,
		logger:            slog.Default(),
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *Usecase) Create(ctx context.Context, name string) (model.Feature, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return model.Feature{}, ErrValidation
	}

	f := model.Feature{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: u.now().UTC(),
	}
	if err := u.FeatureRepository.Create(ctx, f); err != nil {
		return model.Feature{}, errors.Join(ErrTransport, err)
	}

	u.logger.Info("feature requested", "id", f.ID, "name", name)
	return f, nil
}

// List returns features by raw score, highest first; ties keep the oldest first.
func (u *Usecase) List(ctx context.Context) ([]model.Feature, error) {
	features, err := u.FeatureRepository.List(ctx)
	if err != nil {
		return nil, errors.Join(ErrTransport, err)
	}

	slices.SortStableFunc(features, func(a, b model.Feature) int {
		if c := cmp.Compare(b.Votes, a.Votes); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return features, nil
}

// Vote applies an up (+1) or down (-1) vote. One vote per session token per feature.
func (u *Usecase) Vote(ctx context.Context, token string, id uuid.UUID, delta int) (model.Feature, error) {
	if strings.TrimSpace(token) == "" || (delta != 1 && delta != -1) {
		return model.Feature{}, ErrValidation
	}

	acquired, err := u.VoteLock.Acquire(ctx, token, id)
	if err != nil {
		return model.Feature{}, errors.Join(ErrTransport, err)
	}
	if !acquired {
		return model.Feature{}, ErrAlreadyVoted
	}

	f, err := u.FeatureRepository.AddVotes(ctx, id, delta)
	if err != nil {
		// Nothing was counted, so the token keeps its vote.
		if rerr := u.VoteLock.Release(ctx, token, id); rerr != nil {
			u.logger.Warn("vote lock release failed", "id", id, "error", rerr)
		}
		if errors.Is(err, ErrNotFound) {
			return model.Feature{}, ErrNotFound
		}
		return model.Feature{}, errors.Join(ErrTransport, err)
	}
	return f, nil
}
