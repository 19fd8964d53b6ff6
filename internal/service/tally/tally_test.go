package tally

import (
	"math/rand"
	"testing"

	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
)

type TallyUnitSuite struct {
	suite.Suite
}

func (s *TallyUnitSuite) TestTally(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		votes    map[string]model.Vote
		outcome  Outcome
		value    model.Vote
		rendered string
	}{
		{
			name:    "Should report no votes on empty mapping",
			votes:   map[string]model.Vote{},
			outcome: NoVotes,
		},
		{
			name:    "Should report no votes when nobody cast a card",
			votes:   map[string]model.Vote{"A": model.NoVote, "B": model.NoVote},
			outcome: NoVotes,
		},
		{
			name:     "Should decide single vote",
			votes:    map[string]model.Vote{"A": 5},
			outcome:  Decided,
			value:    5,
			rendered: "5",
		},
		{
			name:     "Should decide plurality",
			votes:    map[string]model.Vote{"A": 5, "B": 5, "C": 8},
			outcome:  Decided,
			value:    5,
			rendered: "5",
		},
		{
			name:     "Should report draw on two-way tie",
			votes:    map[string]model.Vote{"A": 5, "B": 8},
			outcome:  Draw,
			rendered: "It's a draw",
		},
		{
			name:     "Should report draw on tie at higher frequency",
			votes:    map[string]model.Vote{"A": 5, "B": 5, "C": 8, "D": 8},
			outcome:  Draw,
			rendered: "It's a draw",
		},
		{
			name:     "Should skip missing votes",
			votes:    map[string]model.Vote{"A": 13, "B": model.NoVote},
			outcome:  Decided,
			value:    13,
			rendered: "13",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()

			res := Tally(tc.votes)

			assert.Equal(t, tc.outcome, res.Outcome)
			assert.Equal(t, tc.value, res.Value)
			assert.Equal(t, tc.rendered, res.String())
		})
	}
}

func (s *TallyUnitSuite) TestTallyDrawLeaders(t provider.T) {
	res := Tally(map[string]model.Vote{"A": 8, "B": 5, "C": 5, "D": 8, "E": 1})

	assert.Equal(t, Draw, res.Outcome)
	assert.Equal(t, []model.Vote{5, 8}, res.Leaders)
	assert.Equal(t, 5, res.Cast)
	assert.Equal(t, map[model.Vote]int{1: 1, 5: 2, 8: 2}, res.Histogram)
}

func (s *TallyUnitSuite) TestTallyIsCommutative(t provider.T) {
	values := []model.Vote{1, 2, 3, 3, 5, 8, 8, 8, 13, 20}
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	baseline := make(map[string]model.Vote, len(values))
	for i, v := range values {
		baseline[names[i]] = v
	}
	expected := Tally(baseline)

	rnd := rand.New(rand.NewSource(42))
	for range 50 {
		shuffled := make([]model.Vote, len(values))
		copy(shuffled, values)
		rnd.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		votes := make(map[string]model.Vote, len(shuffled))
		for i, v := range shuffled {
			votes[names[i]] = v
		}

		got := Tally(votes)
		assert.Equal(t, expected.Outcome, got.Outcome)
		assert.Equal(t, expected.Value, got.Value)
		assert.Equal(t, expected.Leaders, got.Leaders)
	}
}

func (s *TallyUnitSuite) TestForBoard(t provider.T) {
	t.Run("Should ignore votes of removed participants", func(t provider.T) {
		b := model.Board{
			Participants: []string{"alice", "bob"},
			Votes:        map[string]model.Vote{"alice": 3, "bob": 3, "carol": 8, "dave": 8, "erin": 8},
		}

		res := ForBoard(b)

		assert.Equal(t, Decided, res.Outcome)
		assert.Equal(t, model.Vote(3), res.Value)
		assert.Equal(t, 2, res.Cast)
	})

	t.Run("Should report no votes for participants without cards", func(t provider.T) {
		b := model.Board{
			Participants: []string{"alice"},
			Votes:        map[string]model.Vote{},
		}

		assert.Equal(t, NoVotes, ForBoard(b).Outcome)
	})
}

func TestTallyUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(TallyUnitSuite))
}
