package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"taskboard/internal/cache"
	"taskboard/internal/export"
	"taskboard/internal/storage"
)

var testNow = time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

type fixture struct {
	svc       *Services
	store     *storage.Store
	exportDir string
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithCache(t, cache.Noop{})
}

func newFixtureWithCache(t *testing.T, c cache.Cache) *fixture {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := storage.Open(context.Background(), storage.DriverSQLite, ":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := filepath.Join(t.TempDir(), "out")
	exporter := export.New(dir, logger).WithClock(func() time.Time { return testNow })

	svc := New(store.Gateway, c, exporter, logger)
	svc.Boards.now = func() time.Time { return testNow }
	return &fixture{svc: svc, store: store, exportDir: dir}
}

func (f *fixture) user(t *testing.T, name string) int64 {
	t.Helper()
	res, err := f.svc.Users.CreateUser(context.Background(), CreateUserRequest{Name: name, DisplayName: "Display " + name})
	require.NoError(t, err)
	return res.ID
}

func (f *fixture) users(t *testing.T, prefix string, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, f.user(t, fmt.Sprintf("%s-%02d", prefix, i)))
	}
	return ids
}

func (f *fixture) team(t *testing.T, name string) int64 {
	t.Helper()
	res, err := f.svc.Teams.CreateTeam(context.Background(), CreateTeamRequest{Name: name, Description: "about " + name})
	require.NoError(t, err)
	return res.ID
}

func (f *fixture) board(t *testing.T, name string, teamID int64) int64 {
	t.Helper()
	res, err := f.svc.Boards.CreateBoard(context.Background(), CreateBoardRequest{Name: name, Description: "about " + name, TeamID: teamID})
	require.NoError(t, err)
	return res.ID
}

func (f *fixture) task(t *testing.T, title string, boardID int64, userID *int64) int64 {
	t.Helper()
	res, err := f.svc.Boards.AddTask(context.Background(), CreateTaskRequest{Title: title, Description: "do " + title, BoardID: boardID, UserID: userID})
	require.NoError(t, err)
	return res.ID
}

func ptr[T any](v T) *T {
	return &v
}
