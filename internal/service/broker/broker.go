package broker

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"sync"

	"github.com/humanbelnik/pokerboard/internal/model"
)

var ErrClosed = errors.New("subscription closed")

type Kind string

const (
	KindBoard Kind = "board"
	KindFeed  Kind = "feed"
)

// Update is a full-state snapshot of one board topic: either the whole Board
// or the whole accumulated message list. Never a diff.
type Update struct {
	Kind     Kind
	Code     model.BoardCode
	Revision int64
	Board    *model.Board
	Messages []model.Message
}

type topic struct {
	subs map[*Subscription]bool
	// Last delivered snapshot per kind. Seeds late subscribers and rejects stale publishes.
	latest map[Kind]Update
}

type Broker struct {
	mu sync.Mutex

	// Keep track of subscriptions within each board code
	topics map[model.BoardCode]*topic

	logger *slog.Logger
}

type Option func(*Broker)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

func New(opts ...Option) *Broker {
	b := &Broker{
		topics: make(map[model.BoardCode]*topic),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers interest in a board code. The returned subscription
// immediately holds the latest known snapshots of the topic, if any.
// Close must be called to release it.
func (b *Broker) Subscribe(code model.BoardCode) *Subscription {
	sub := &Subscription{
		code:    code,
		broker:  b,
		pending: make(map[Kind]Update, 2),
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[code]
	if !ok {
		t = &topic{
			subs:   make(map[*Subscription]bool),
			latest: make(map[Kind]Update, 2),
		}
		b.topics[code] = t
	}
	t.subs[sub] = true
	for _, kind := range []Kind{KindBoard, KindFeed} {
		if u, ok := t.latest[kind]; ok {
			sub.offer(u)
		}
	}

	b.logger.Debug("subscription registered", "code", code, "subscribers", len(t.subs))
	return sub
}

// Publish fans the snapshot out to every subscriber of its code. Snapshots not
// newer than the last delivered one of the same kind are dropped, so all
// subscribers observe one monotonically increasing sequence per topic.
// Publishing never blocks on slow subscribers.
func (b *Broker) Publish(_ context.Context, u Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[u.Code]
	if !ok {
		return nil
	}
	if last, ok := t.latest[u.Kind]; ok && u.Revision <= last.Revision {
		b.logger.Debug("stale snapshot dropped",
			"code", u.Code,
			"kind", u.Kind,
			"revision", u.Revision,
			"latest", last.Revision)
		return nil
	}
	t.latest[u.Kind] = u

	for sub := range t.subs {
		sub.offer(u)
	}
	return nil
}

func (b *Broker) Subscribers(code model.BoardCode) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[code]; ok {
		return len(t.subs)
	}
	return 0
}

func (b *Broker) Topics() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.topics)
}

func (b *Broker) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[sub.code]; ok {
		delete(t.subs, sub)
		if len(t.subs) == 0 {
			delete(b.topics, sub.code)
		}
	}
	b.logger.Debug("subscription released", "code", sub.code)
}

// Subscription is a lazy, infinite, non-restartable sequence of snapshots for
// one board code. A consumer that falls behind only keeps the newest pending
// snapshot of each kind.
type Subscription struct {
	code   model.BoardCode
	broker *Broker

	mu      sync.Mutex
	pending map[Kind]Update
	order   []Kind

	signal    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscription) Code() model.BoardCode {
	return s.code
}

func (s *Subscription) offer(u Update) {
	s.mu.Lock()
	if _, ok := s.pending[u.Kind]; !ok {
		s.order = append(s.order, u.Kind)
	}
	s.pending[u.Kind] = u
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription) pop() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) == 0 {
		return Update{}, false
	}
	kind := s.order[0]
	s.order = s.order[1:]
	u := s.pending[kind]
	delete(s.pending, kind)
	return u, true
}

// Next blocks until a snapshot is available, ctx is done or the subscription is closed.
func (s *Subscription) Next(ctx context.Context) (Update, error) {
	for {
		select {
		case <-s.done:
			return Update{}, ErrClosed
		default:
		}

		if u, ok := s.pop(); ok {
			return u, nil
		}

		select {
		case <-ctx.Done():
			return Update{}, ctx.Err()
		case <-s.done:
			return Update{}, ErrClosed
		case <-s.signal:
		}
	}
}

// All exposes the subscription as a range-over-func sequence that ends when
// ctx is done or the subscription is closed.
func (s *Subscription) All(ctx context.Context) iter.Seq[Update] {
	return func(yield func(Update) bool) {
		for {
			u, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(u) {
				return
			}
		}
	}
}

// Close stops delivery and releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.broker.remove(s)
	})
}
