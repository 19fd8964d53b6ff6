package broker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type BrokerUnitSuite struct {
	suite.Suite
}

func validCode() model.BoardCode {
	return "k3x9qa"
}

func boardUpdate(code model.BoardCode, revision int64, epic string) Update {
	return Update{
		Kind:     KindBoard,
		Code:     code,
		Revision: revision,
		Board: &model.Board{
			Code:     code,
			Epic:     epic,
			Revision: revision,
		},
	}
}

func feedUpdate(code model.BoardCode, revision int64, texts ...string) Update {
	msgs := make([]model.Message, 0, len(texts))
	for i, text := range texts {
		msgs = append(msgs, model.Message{BoardCode: code, Text: text, Seq: int64(i + 1)})
	}
	return Update{
		Kind:     KindFeed,
		Code:     code,
		Revision: revision,
		Messages: msgs,
	}
}

func nextWithin(t provider.T, sub *Subscription, d time.Duration) Update {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	u, err := sub.Next(ctx)
	require.NoError(t, err)
	return u
}

func (s *BrokerUnitSuite) TestPublishReachesEverySubscriberInOrder(t provider.T) {
	b := New()
	code := validCode()

	first := b.Subscribe(code)
	defer first.Close()
	second := b.Subscribe(code)
	defer second.Close()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		observed = map[*Subscription][]int64{}
	)
	for _, sub := range []*Subscription{first, second} {
		wg.Add(1)
		go func(sub *Subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			for u := range sub.All(ctx) {
				mu.Lock()
				observed[sub] = append(observed[sub], u.Revision)
				mu.Unlock()
				if u.Revision == 20 {
					return
				}
			}
		}(sub)
	}

	for rev := int64(1); rev <= 20; rev++ {
		require.NoError(t, b.Publish(context.Background(), boardUpdate(code, rev, "epic")))
	}
	wg.Wait()

	for _, sub := range []*Subscription{first, second} {
		revs := observed[sub]
		require.NotEmpty(t, revs)
		assert.Equal(t, int64(20), revs[len(revs)-1])
		for i := 1; i < len(revs); i++ {
			assert.Greater(t, revs[i], revs[i-1])
		}
	}
}

func (s *BrokerUnitSuite) TestLateSubscriberSeesOnlyLatest(t provider.T) {
	b := New()
	code := validCode()

	anchor := b.Subscribe(code)
	defer anchor.Close()

	for rev := int64(1); rev <= 5; rev++ {
		require.NoError(t, b.Publish(context.Background(), boardUpdate(code, rev, "v")))
	}

	late := b.Subscribe(code)
	defer late.Close()

	u := nextWithin(t, late, 100*time.Millisecond)
	assert.Equal(t, int64(5), u.Revision)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := late.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (s *BrokerUnitSuite) TestSlowSubscriberIsConflated(t provider.T) {
	b := New()
	code := validCode()

	sub := b.Subscribe(code)
	defer sub.Close()

	require.NoError(t, b.Publish(context.Background(), boardUpdate(code, 1, "one")))
	require.NoError(t, b.Publish(context.Background(), feedUpdate(code, 1, "hi")))
	require.NoError(t, b.Publish(context.Background(), boardUpdate(code, 2, "two")))
	require.NoError(t, b.Publish(context.Background(), boardUpdate(code, 3, "three")))

	u := nextWithin(t, sub, 100*time.Millisecond)
	assert.Equal(t, KindBoard, u.Kind)
	assert.Equal(t, int64(3), u.Revision)
	assert.Equal(t, "three", u.Board.Epic)

	u = nextWithin(t, sub, 100*time.Millisecond)
	assert.Equal(t, KindFeed, u.Kind)
	assert.Len(t, u.Messages, 1)
}

func (s *BrokerUnitSuite) TestStaleSnapshotsAreDropped(t provider.T) {
	b := New()
	code := validCode()

	sub := b.Subscribe(code)
	defer sub.Close()

	require.NoError(t, b.Publish(context.Background(), boardUpdate(code, 7, "new")))
	u := nextWithin(t, sub, 100*time.Millisecond)
	assert.Equal(t, int64(7), u.Revision)

	require.NoError(t, b.Publish(context.Background(), boardUpdate(code, 6, "old")))
	require.NoError(t, b.Publish(context.Background(), boardUpdate(code, 7, "dup")))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := sub.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (s *BrokerUnitSuite) TestTopicsAreIsolated(t provider.T) {
	b := New()

	a := b.Subscribe("aaaaaa")
	defer a.Close()
	other := b.Subscribe("bbbbbb")
	defer other.Close()

	require.NoError(t, b.Publish(context.Background(), boardUpdate("aaaaaa", 1, "a")))

	u := nextWithin(t, a, 100*time.Millisecond)
	assert.Equal(t, "aaaaaa", u.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := other.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func (s *BrokerUnitSuite) TestCloseReleasesTopic(t provider.T) {
	b := New()
	code := validCode()

	first := b.Subscribe(code)
	second := b.Subscribe(code)
	assert.Equal(t, 2, b.Subscribers(code))

	first.Close()
	first.Close()
	assert.Equal(t, 1, b.Subscribers(code))
	assert.Equal(t, 1, b.Topics())

	second.Close()
	assert.Equal(t, 0, b.Subscribers(code))
	assert.Equal(t, 0, b.Topics())

	_, err := second.Next(context.Background())
	assert.True(t, errors.Is(err, ErrClosed))
}

func (s *BrokerUnitSuite) TestCloseUnblocksNext(t provider.T) {
	b := New()
	sub := b.Subscribe(validCode())

	errCh := make(chan error, 1)
	go func() {
		_, err := sub.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	sub.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatalf("Next did not return after Close")
	}
}

func (s *BrokerUnitSuite) TestPublishWithoutSubscribers(t provider.T) {
	b := New()

	require.NoError(t, b.Publish(context.Background(), boardUpdate(validCode(), 1, "x")))
	assert.Equal(t, 0, b.Topics())
}

func TestBrokerUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(BrokerUnitSuite))
}
