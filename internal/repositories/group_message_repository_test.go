package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestListGroupMessagesOldestFirstWithIDTieBreak(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupMessageRepo(db)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "group_id", "user_id", "content", "created_at"}).
		AddRow(3, 9, 1, "first", at).
		AddRow(4, 9, 2, "same instant", at).
		AddRow(5, 9, 1, "later", at.Add(time.Minute))
	mock.ExpectQuery(`SELECT id, group_id, user_id, content, created_at FROM group_messages WHERE group_id=\$1 ORDER BY created_at ASC, id ASC`).
		WithArgs(9).
		WillReturnRows(rows)

	msgs, err := repo.ListGroupMessages(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, []int{3, 4, 5}, []int{msgs[0].ID, msgs[1].ID, msgs[2].ID})
	require.True(t, msgs[0].CreatedAt.Equal(msgs[1].CreatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGroupMessageRejectsEmptyContent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupMessageRepo(db)

	_, err := repo.CreateGroupMessage(context.Background(), 9, 1, "")
	require.ErrorIs(t, err, ErrEmptyContent)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGroupMessageReturnsInsertedRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupMessageRepo(db)

	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT INTO group_messages \(group_id, user_id, content\) VALUES \(\$1, \$2, \$3\).+RETURNING id, group_id, user_id, content, created_at`).
		WithArgs(9, 1, "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "content", "created_at"}).
			AddRow(12, 9, 1, "hello", at))

	msg, err := repo.CreateGroupMessage(context.Background(), 9, 1, "hello")
	require.NoError(t, err)
	require.Equal(t, 12, msg.ID)
	require.Equal(t, "hello", msg.Content)
	require.NoError(t, mock.ExpectationsWereMet())
}
