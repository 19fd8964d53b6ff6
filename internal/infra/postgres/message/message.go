package infra_postgres_message

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feed "github.com/humanbelnik/pokerboard/internal/usecase/feed"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

type messageDTO struct {
	ID        uuid.UUID `db:"id"`
	BoardCode string    `db:"board_code"`
	Seq       int64     `db:"seq"`
	Text      string    `db:"text"`
	Read      bool      `db:"read"`
	PostedAt  time.Time `db:"posted_at"`
}

// Append takes the next sequence number from the board row and inserts the
// message in one statement. No board row means nothing is inserted.
func (d *Driver) Append(ctx context.Context, msg model.Message) (model.Message, error) {
	query := `
		WITH next AS (
			UPDATE boards
			SET message_seq = message_seq + 1
			WHERE code = $2
			RETURNING message_seq
		)
		INSERT INTO messages (id, board_code, seq, text, posted_at)
		SELECT $1::uuid, $2::text, next.message_seq, $3::text, $4::timestamptz
		FROM next
		RETURNING seq
	`

	var seq int64
	if err := d.db.GetContext(ctx, &seq, query, msg.ID, msg.BoardCode, msg.Text, msg.PostedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Message{}, usecase_feed.ErrNotFound
		}
		return model.Message{}, err
	}

	msg.Seq = seq
	return msg, nil
}

func (d *Driver) ListByBoard(ctx context.Context, code model.BoardCode) ([]model.Message, error) {
	var dtos []messageDTO

	query := `
		SELECT id, board_code, seq, text, read, posted_at
		FROM messages
		WHERE board_code = $1
		ORDER BY seq
	`

	if err := d.db.SelectContext(ctx, &dtos, query, code); err != nil {
		return nil, err
	}

	msgs := make([]model.Message, 0, len(dtos))
	for _, dto := range dtos {
		msgs = append(msgs, model.Message{
			ID:        dto.ID,
			BoardCode: dto.BoardCode,
			Text:      dto.Text,
			PostedAt:  dto.PostedAt,
			Seq:       dto.Seq,
			Read:      dto.Read,
		})
	}
	return msgs, nil
}
