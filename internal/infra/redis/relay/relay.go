package infra_redis_relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-redis/redis"
	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/humanbelnik/pokerboard/internal/service/broker"
)

var ErrUpstreamClosed = errors.New("redis subscription closed")

// Sink receives snapshots coming from any instance.
type Sink interface {
	Publish(ctx context.Context, u broker.Update) error
}

// Relay carries snapshots between instances over Redis pub/sub, one channel
// per board code. Publish writes to Redis; Run feeds whatever arrives into sink.
type Relay struct {
	client *redis.Client
	prefix string
	sink   Sink
	logger *slog.Logger

	readyOnce sync.Once
	ready     chan struct{}
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func New(
	client *redis.Client,
	prefix string,
	sink Sink,
	opts ...Option,
) *Relay {
	r := &Relay{
		client: client,
		prefix: prefix,
		sink:   sink,
		logger: slog.Default(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type envelope struct {
	Kind     broker.Kind     `json:"kind"`
	Code     model.BoardCode `json:"code"`
	Revision int64           `json:"revision"`
	Board    *model.Board    `json:"board,omitempty"`
	Messages []model.Message `json:"messages,omitempty"`
}

func (r *Relay) Publish(ctx context.Context, u broker.Update) error {
	data, err := sonic.Marshal(envelope{
		Kind:     u.Kind,
		Code:     u.Code,
		Revision: u.Revision,
		Board:    u.Board,
		Messages: u.Messages,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.client.Publish(r.channel(u.Code), data).Err()
}

// Ready is closed once the upstream subscription is confirmed.
func (r *Relay) Ready() <-chan struct{} {
	return r.ready
}

// Run pattern-subscribes to every board channel and blocks until ctx is done.
// Reconnects of the single upstream subscription are handled by the client.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.PSubscribe(r.prefix + ":*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(); err != nil {
		return fmt.Errorf("subscribe %s:*: %w", r.prefix, err)
	}
	r.readyOnce.Do(func() { close(r.ready) })
	r.logger.Info("snapshot relay subscribed", "pattern", r.prefix+":*")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrUpstreamClosed
			}
			r.handle(ctx, msg)
		}
	}
}

func (r *Relay) handle(ctx context.Context, msg *redis.Message) {
	var env envelope
	if err := sonic.UnmarshalString(msg.Payload, &env); err != nil {
		r.logger.Warn("undecodable snapshot dropped", "channel", msg.Channel, "error", err)
		return
	}
	if code := strings.TrimPrefix(msg.Channel, r.prefix+":"); code != env.Code {
		r.logger.Warn("snapshot on foreign channel dropped", "channel", msg.Channel, "code", env.Code)
		return
	}

	if err := r.sink.Publish(ctx, broker.Update{
		Kind:     env.Kind,
		Code:     env.Code,
		Revision: env.Revision,
		Board:    env.Board,
		Messages: env.Messages,
	}); err != nil {
		r.logger.Error("snapshot delivery failed", "code", env.Code, "error", err)
	}
}

func (r *Relay) channel(code model.BoardCode) string {
	return r.prefix + ":" + code
}
