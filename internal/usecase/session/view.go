package usecase_session

import (
	"time"

	"github.com/humanbelnik/pokerboard/internal/model"
	"github.com/humanbelnik/pokerboard/internal/service/tally"
)

// View is everything one viewer is allowed to see right now.
type View struct {
	SessionID string          `json:"session_id"`
	Code      model.BoardCode `json:"code"`
	Role      Role            `json:"role"`
	State     State           `json:"state"`
	Name      string          `json:"name,omitempty"`

	Epic  string `json:"epic"`
	Story string `json:"story"`
	Task  string `json:"task"`

	Participants []ParticipantView `json:"participants"`
	// Own card of a joined participant, always visible to its owner.
	OwnVote  model.Vote    `json:"own_vote,omitempty"`
	Decision *DecisionView `json:"decision,omitempty"`
	Scale    []model.Vote  `json:"scale"`

	Messages []MessageView `json:"messages"`

	Revision int64 `json:"revision"`
	Round    int64 `json:"round"`
}

type ParticipantView struct {
	Name  string `json:"name"`
	Voted bool   `json:"voted"`
	// Only set once the board is revealed.
	Vote model.Vote `json:"vote,omitempty"`
}

type DecisionView struct {
	Outcome   tally.Outcome      `json:"outcome"`
	Value     model.Vote         `json:"value,omitempty"`
	Text      string             `json:"text"`
	Leaders   []model.Vote       `json:"leaders,omitempty"`
	Histogram map[model.Vote]int `json:"histogram"`
}

type MessageView struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	PostedAt time.Time `json:"posted_at"`
	Seq      int64     `json:"seq"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	revealed := s.state == StateRevealed

	v := View{
		SessionID:    s.ID.String(),
		Code:         s.Code,
		Role:         s.Role,
		State:        s.state,
		Name:         s.name,
		Epic:         s.board.Epic,
		Story:        s.board.Story,
		Task:         s.board.Task,
		Participants: make([]ParticipantView, 0, len(s.board.Participants)),
		Scale:        model.Scale,
		Messages:     make([]MessageView, 0, len(s.messages)),
		Revision:     s.board.Revision,
		Round:        s.board.Round,
	}

	for _, name := range s.board.Participants {
		vote := s.board.Votes[name]
		p := ParticipantView{
			Name:  name,
			Voted: vote != model.NoVote,
		}
		if revealed {
			p.Vote = vote
		}
		v.Participants = append(v.Participants, p)
	}

	if s.name != "" {
		v.OwnVote = s.board.Votes[s.name]
	}

	if revealed && s.decision != nil {
		v.Decision = &DecisionView{
			Outcome:   s.decision.Outcome,
			Value:     s.decision.Value,
			Text:      s.decision.String(),
			Leaders:   s.decision.Leaders,
			Histogram: s.decision.Histogram,
		}
	}

	for _, m := range s.messages {
		v.Messages = append(v.Messages, MessageView{
			ID:       m.ID.String(),
			Text:     m.Text,
			PostedAt: m.PostedAt,
			Seq:      m.Seq,
		})
	}
	return v
}
