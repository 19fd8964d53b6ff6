package infra_postgres_board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_board "github.com/humanbelnik/pokerboard/internal/usecase/board"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

type boardDTO struct {
	Code         string         `db:"code"`
	Epic         string         `db:"epic"`
	Story        string         `db:"story"`
	Task         string         `db:"task"`
	Participants pq.StringArray `db:"participants"`
	Votes        []byte         `db:"votes"`
	Revision     int64          `db:"revision"`
	Round        int64          `db:"round"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (d *Driver) Create(ctx context.Context, board model.Board) error {
	votes, err := encodeVotes(board.Votes)
	if err != nil {
		return err
	}

	participants := board.Participants
	if participants == nil {
		participants = []string{}
	}

	dto := boardDTO{
		Code:         board.Code,
		Epic:         board.Epic,
		Story:        board.Story,
		Task:         board.Task,
		Participants: pq.StringArray(participants),
		Votes:        votes,
		Revision:     board.Revision,
		Round:        board.Round,
		CreatedAt:    board.CreatedAt,
	}

	query := `
		INSERT INTO boards (code, epic, story, task, participants, votes, revision, round, created_at)
		VALUES (:code, :epic, :story, :task, :participants, :votes, :revision, :round, :created_at)
	`

	if _, err := d.db.NamedExecContext(ctx, query, dto); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return usecase_board.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (d *Driver) FindByCode(ctx context.Context, code model.BoardCode) (model.Board, error) {
	var dto boardDTO

	query := `
		SELECT code, epic, story, task, participants, votes, revision, round, created_at
		FROM boards
		WHERE code = $1
	`

	if err := d.db.GetContext(ctx, &dto, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Board{}, usecase_board.ErrNotFound
		}
		return model.Board{}, err
	}

	votes, err := decodeVotes(dto.Votes)
	if err != nil {
		return model.Board{}, err
	}

	participants := []string(dto.Participants)
	if participants == nil {
		participants = []string{}
	}

	return model.Board{
		Code:         dto.Code,
		Epic:         dto.Epic,
		Story:        dto.Story,
		Task:         dto.Task,
		Participants: participants,
		Votes:        votes,
		CreatedAt:    dto.CreatedAt,
		Revision:     dto.Revision,
		Round:        dto.Round,
	}, nil
}

// Absent patch fields bind as NULL and keep the stored value.
func (d *Driver) UpdateContent(ctx context.Context, code model.BoardCode, patch model.ContentPatch) error {
	query := `
		UPDATE boards
		SET epic = COALESCE($2, epic),
		    story = COALESCE($3, story),
		    task = COALESCE($4, task),
		    revision = revision + 1
		WHERE code = $1
	`
	return d.exec(ctx, query, code, patch.Epic, patch.Story, patch.Task)
}

func (d *Driver) AddParticipant(ctx context.Context, code model.BoardCode, name string) error {
	query := `
		UPDATE boards
		SET participants = CASE
		        WHEN $2::text = ANY(participants) THEN participants
		        ELSE array_append(participants, $2::text)
		    END,
		    revision = revision + 1
		WHERE code = $1
	`
	return d.exec(ctx, query, code, name)
}

func (d *Driver) RemoveParticipant(ctx context.Context, code model.BoardCode, name string) error {
	query := `
		UPDATE boards
		SET participants = array_remove(participants, $2::text),
		    revision = revision + 1
		WHERE code = $1
	`
	return d.exec(ctx, query, code, name)
}

func (d *Driver) SetVote(ctx context.Context, code model.BoardCode, name string, vote model.Vote) error {
	query := `
		UPDATE boards
		SET votes = votes || jsonb_build_object($2::text, $3::int),
		    revision = revision + 1
		WHERE code = $1
	`
	return d.exec(ctx, query, code, name, int(vote))
}

func (d *Driver) ResetVotes(ctx context.Context, code model.BoardCode) error {
	query := `
		UPDATE boards
		SET votes = '{}'::jsonb,
		    round = round + 1,
		    revision = revision + 1
		WHERE code = $1
	`
	return d.exec(ctx, query, code)
}

func (d *Driver) exec(ctx context.Context, query string, args ...any) error {
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return usecase_board.ErrNotFound
	}

	return nil
}

func encodeVotes(votes map[string]model.Vote) ([]byte, error) {
	doc := make(map[string]int, len(votes))
	for name, v := range votes {
		doc[name] = int(v)
	}
	return sonic.Marshal(doc)
}

// Stored documents are trusted no further than the scale allows.
func decodeVotes(data []byte) (map[string]model.Vote, error) {
	votes := make(map[string]model.Vote)
	if len(data) == 0 {
		return votes, nil
	}

	var doc map[string]int
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("malformed votes document: %w", err)
	}
	for name, raw := range doc {
		v := model.Vote(raw)
		if !v.Valid() {
			return nil, fmt.Errorf("vote %d of %q is off the scale", raw, name)
		}
		votes[name] = v
	}
	return votes, nil
}
