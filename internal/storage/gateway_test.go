package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), DriverSQLite, ":memory:", quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newMockGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(sqlx.NewDb(db, "sqlmock"), quietLogger()).Gateway, mock
}

func TestCreatePopulatesIdentityAndTimestamps(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "alice", "display_name": "Alice"})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Name)
	assert.Equal(t, "Alice", user.DisplayName)
	assert.False(t, user.CreatedAt.IsZero())
	assert.False(t, user.UpdatedAt.IsZero())
}

func TestGetOneAbsentIsNotAnError(t *testing.T) {
	store := newTestStore(t)

	user, err := GetOne(context.Background(), store.Gateway, Users, Eq("id", 42))
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetAllOrdersByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := Create(ctx, store.Gateway, Users, map[string]any{"name": name, "display_name": name})
		require.NoError(t, err)
	}

	users, err := GetAll(ctx, store.Gateway, Users)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "carol", users[0].Name)
	assert.Equal(t, "bob", users[2].Name)

	empty, err := GetAll(ctx, store.Gateway, Teams)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestCreateDuplicateReportsUniqueViolation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "alice", "display_name": "A"})
	require.NoError(t, err)

	_, err = Create(ctx, store.Gateway, Users, map[string]any{"name": "alice", "display_name": "B"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUniqueViolation)

	n, err := Count(ctx, store.Gateway, Users)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestUpdateIsPartialAndCountsRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "alice", "display_name": "Alice"})
	require.NoError(t, err)

	affected, err := Update(ctx, store.Gateway, Users, Eq("id", user.ID), map[string]any{"display_name": "Ally"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	got, err := GetOne(ctx, store.Gateway, Users, Eq("id", user.ID))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "Ally", got.DisplayName)

	affected, err = Update(ctx, store.Gateway, Users, Eq("id", user.ID+100), map[string]any{"display_name": "X"})
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestUnknownColumnsAreRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := GetOne(ctx, store.Gateway, Users, Eq("name; DROP TABLE users", 1))
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Create(ctx, store.Gateway, Users, map[string]any{"id": 5, "name": "x"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Update(ctx, store.Gateway, Users, Eq("id", 1), map[string]any{"created_at": time.Now()})
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestNullableColumnsRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	team, err := Create(ctx, store.Gateway, Teams, map[string]any{"name": "core", "description": "d"})
	require.NoError(t, err)
	assert.Nil(t, team.AdminID)

	board, err := Create(ctx, store.Gateway, Boards, map[string]any{
		"name": "b1", "description": "", "team_id": team.ID, "status": models.BoardStatusOpen,
	})
	require.NoError(t, err)
	assert.Nil(t, board.EndTime)

	end := time.Now().UTC().Truncate(time.Second)
	_, err = Update(ctx, store.Gateway, Boards, Eq("id", board.ID), map[string]any{"status": models.BoardStatusClosed, "end_time": end})
	require.NoError(t, err)

	got, err := GetOne(ctx, store.Gateway, Boards, Eq("id", board.ID))
	require.NoError(t, err)
	require.NotNil(t, got.EndTime)
	assert.True(t, end.Equal(*got.EndTime))
	assert.True(t, got.Closed())
}

func TestMembership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	team, err := Create(ctx, store.Gateway, Teams, map[string]any{"name": "core", "description": ""})
	require.NoError(t, err)
	alice, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "alice", "display_name": "Alice"})
	require.NoError(t, err)
	bob, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "bob", "display_name": "Bob"})
	require.NoError(t, err)

	require.NoError(t, store.AddMember(ctx, team.ID, bob.ID))
	require.NoError(t, store.AddMember(ctx, team.ID, alice.ID))
	assert.ErrorIs(t, store.AddMember(ctx, team.ID, alice.ID), ErrUniqueViolation)

	n, err := store.MemberCount(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	members, err := store.Members(ctx, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "alice", members[0].Name)

	teams, err := store.TeamsOf(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "core", teams[0].Name)

	ok, err := store.IsMember(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	removed, err := store.RemoveMember(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = store.RemoveMember(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx *Gateway) error {
		if _, err := Create(ctx, tx, Users, map[string]any{"name": "ghost", "display_name": ""}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := GetOne(ctx, store.Gateway, Users, Eq("name", "ghost"))
	require.NoError(t, err)
	assert.Nil(t, user)

	err = store.WithTx(ctx, func(tx *Gateway) error {
		_, err := Create(ctx, tx, Users, map[string]any{"name": "kept", "display_name": ""})
		return err
	})
	require.NoError(t, err)

	user, err = GetOne(ctx, store.Gateway, Users, Eq("name", "kept"))
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestBoardQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	team, err := Create(ctx, store.Gateway, Teams, map[string]any{"name": "core", "description": ""})
	require.NoError(t, err)
	alice, err := Create(ctx, store.Gateway, Users, map[string]any{"name": "alice", "display_name": "Alice"})
	require.NoError(t, err)
	board, err := Create(ctx, store.Gateway, Boards, map[string]any{"name": "b1", "description": "", "team_id": team.ID, "status": "OPEN"})
	require.NoError(t, err)
	empty, err := Create(ctx, store.Gateway, Boards, map[string]any{"name": "b2", "description": "", "team_id": team.ID, "status": "OPEN"})
	require.NoError(t, err)

	assigned, err := Create(ctx, store.Gateway, Tasks, map[string]any{
		"title": "t1", "description": "first", "board_id": board.ID, "user_id": alice.ID, "status": "OPEN",
	})
	require.NoError(t, err)
	unassigned, err := Create(ctx, store.Gateway, Tasks, map[string]any{
		"title": "t2", "description": "second", "board_id": board.ID, "status": "OPEN",
	})
	require.NoError(t, err)

	ids, err := store.TaskIDsByBoard(ctx, team.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{assigned.ID, unassigned.ID}, ids[board.ID])
	assert.Empty(t, ids[empty.ID])

	rows, err := store.ExportRows(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ExportRow{Title: "t1", Description: "first", DisplayName: "Alice", Status: "OPEN"}, rows[0])
}

func TestMockedCreateTranslatesUniqueViolation(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Alice", "alice").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})

	_, err := Create(context.Background(), gw, Users, map[string]any{"name": "alice", "display_name": "Alice"})
	assert.ErrorIs(t, err, ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockedUpdateReturnsAffectedRows(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectExec("UPDATE tasks SET status = \\?, updated_at = CURRENT_TIMESTAMP WHERE id = \\?").
		WithArgs("COMPLETE", int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := Update(context.Background(), gw, Tasks, Eq("id", int64(9)), map[string]any{"status": "COMPLETE"})
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockedWithTxRollsBack(t *testing.T) {
	gw, mock := newMockGateway(t)
	failure := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users_to_teams").WithArgs(int64(2), int64(1)).WillReturnError(failure)
	mock.ExpectRollback()

	err := gw.WithTx(context.Background(), func(tx *Gateway) error {
		return tx.AddMember(context.Background(), 1, 2)
	})
	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMockedMembershipCountsLinkTable(t *testing.T) {
	gw, mock := newMockGateway(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users_to_teams WHERE team_id = \\?$").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users_to_teams WHERE team_id = \\? AND user_id = \\?").
		WithArgs(int64(4), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n, err := gw.MemberCount(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ok, err := gw.IsMember(context.Background(), 4, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
