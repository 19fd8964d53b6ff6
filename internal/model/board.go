package model

import (
	"slices"
	"strconv"
	"time"
)

type BoardCode = string

const EmptyBoardCode BoardCode = ""

// Vote is one card of the estimation scale. Zero means "no vote cast".
type Vote int

const NoVote Vote = 0

// Scale is the fixed ordered set of cards a conforming client may cast.
var Scale = []Vote{1, 2, 3, 5, 8, 13, 20}

func (v Vote) Valid() bool {
	return slices.Contains(Scale, v)
}

func (v Vote) String() string {
	return strconv.Itoa(int(v))
}

type Board struct {
	Code         BoardCode
	Epic         string
	Story        string
	Task         string
	Participants []string
	Votes        map[string]Vote
	CreatedAt    time.Time

	// Bumped by every mutation. Orders snapshot delivery, never conditions a write.
	Revision int64
	// Bumped by every votes reset.
	Round int64
}

func (b Board) HasParticipant(name string) bool {
	return slices.Contains(b.Participants, name)
}

// Clone returns a deep copy so snapshots handed to subscribers never alias store state.
func (b Board) Clone() Board {
	c := b
	c.Participants = slices.Clone(b.Participants)
	c.Votes = make(map[string]Vote, len(b.Votes))
	for name, v := range b.Votes {
		c.Votes[name] = v
	}
	return c
}

// ContentPatch is a partial update of the board text fields; nil fields are left untouched.
type ContentPatch struct {
	Epic  *string
	Story *string
	Task  *string
}

func (p ContentPatch) Empty() bool {
	return p.Epic == nil && p.Story == nil && p.Task == nil
}

func (p ContentPatch) Apply(b *Board) {
	if p.Epic != nil {
		b.Epic = *p.Epic
	}
	if p.Story != nil {
		b.Story = *p.Story
	}
	if p.Task != nil {
		b.Task = *p.Task
	}
}
