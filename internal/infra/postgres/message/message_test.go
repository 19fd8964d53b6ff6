package infra_postgres_message

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/humanbelnik/pokerboard/internal/model"
	usecase_feed "github.com/humanbelnik/pokerboard/internal/usecase/feed"
	"github.com/jmoiron/sqlx"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MessageInfraUnitSuite struct {
	suite.Suite
}

type resources struct {
	mock   sqlmock.Sqlmock
	driver *Driver
	ctx    context.Context
}

func initResources(t provider.T) *resources {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &resources{
		mock:   mock,
		driver: New(sqlx.NewDb(db, "postgres")),
		ctx:    context.Background(),
	}
}

func validMessage() model.Message {
	return model.Message{
		ID:        uuid.New(),
		BoardCode: "k3x9qa",
		Text:      "hello",
		PostedAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (suite *MessageInfraUnitSuite) TestAppend(t provider.T) {
	t.Parallel()

	t.Run("Should take next board sequence", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		msg := validMessage()
		r.mock.ExpectQuery(regexp.QuoteMeta("SET message_seq = message_seq + 1")).
			WithArgs(msg.ID, msg.BoardCode, msg.Text, msg.PostedAt).
			WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(3)))

		got, err := r.driver.Append(r.ctx, msg)

		require.NoError(t, err)
		assert.Equal(t, int64(3), got.Seq)
		assert.Equal(t, msg.ID, got.ID)
		assert.NoError(t, r.mock.ExpectationsWereMet())
	})

	t.Run("Should report missing board", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		r.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages")).
			WillReturnRows(sqlmock.NewRows([]string{"seq"}))

		_, err := r.driver.Append(r.ctx, validMessage())

		assert.ErrorIs(t, err, usecase_feed.ErrNotFound)
	})

	t.Run("Should pass driver failure through", func(t provider.T) {
		t.Parallel()
		r := initResources(t)
		boom := errors.New("deadlock detected")
		r.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages")).WillReturnError(boom)

		_, err := r.driver.Append(r.ctx, validMessage())

		assert.ErrorIs(t, err, boom)
	})
}

func (suite *MessageInfraUnitSuite) TestListByBoard(t provider.T) {
	r := initResources(t)
	first, second := uuid.New(), uuid.New()
	posted := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.mock.ExpectQuery(regexp.QuoteMeta("ORDER BY seq")).
		WithArgs("k3x9qa").
		WillReturnRows(sqlmock.NewRows([]string{"id", "board_code", "seq", "text", "read", "posted_at"}).
			AddRow(first.String(), "k3x9qa", int64(1), "hi", false, posted).
			AddRow(second.String(), "k3x9qa", int64(2), "there", true, posted))

	msgs, err := r.driver.ListByBoard(r.ctx, "k3x9qa")

	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first, msgs[0].ID)
	assert.Equal(t, "there", msgs[1].Text)
	assert.True(t, msgs[1].Read)
	assert.NoError(t, r.mock.ExpectationsWereMet())
}

func TestMessageInfraUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(MessageInfraUnitSuite))
}
