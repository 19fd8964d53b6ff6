package tally

import (
	"slices"

	"github.com/humanbelnik/pokerboard/internal/model"
)

type Outcome string

const (
	NoVotes Outcome = "no_votes"
	Decided Outcome = "decided"
	Draw    Outcome = "draw"
)

type Result struct {
	Outcome Outcome
	// Set only when Outcome is Decided.
	Value model.Vote
	// Values sharing the highest frequency, ascending.
	Leaders   []model.Vote
	Histogram map[model.Vote]int
	Cast      int
}

func (r Result) String() string {
	switch r.Outcome {
	case Decided:
		return r.Value.String()
	case Draw:
		return "It's a draw"
	}
	return ""
}

// Tally computes the plurality decision over the cast votes.
// Entries holding model.NoVote are not counted. Ties are reported as Draw,
// never resolved.
func Tally(votes map[string]model.Vote) Result {
	histogram := make(map[model.Vote]int)
	cast := 0
	for _, v := range votes {
		if v == model.NoVote {
			continue
		}
		histogram[v]++
		cast++
	}

	res := Result{
		Outcome:   NoVotes,
		Histogram: histogram,
		Cast:      cast,
	}
	if cast == 0 {
		return res
	}

	highest := 0
	for _, n := range histogram {
		highest = max(highest, n)
	}
	for v, n := range histogram {
		if n == highest {
			res.Leaders = append(res.Leaders, v)
		}
	}
	slices.Sort(res.Leaders)

	if len(res.Leaders) > 1 {
		res.Outcome = Draw
		return res
	}
	res.Outcome = Decided
	res.Value = res.Leaders[0]
	return res
}

// ForBoard tallies the votes of current participants only.
// Votes left behind by removed participants are ignored.
func ForBoard(b model.Board) Result {
	votes := make(map[string]model.Vote, len(b.Participants))
	for _, name := range b.Participants {
		if v, ok := b.Votes[name]; ok {
			votes[name] = v
		}
	}
	return Tally(votes)
}
