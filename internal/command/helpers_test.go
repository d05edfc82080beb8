package command

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pulse/internal/notify"
	"github.com/roach88/pulse/internal/store"
	"github.com/roach88/pulse/internal/tags"
	"github.com/roach88/pulse/internal/testutil"
)

const ownerID = "181293"

type env struct {
	services   *Services
	dispatcher *Dispatcher
	logs       *bytes.Buffer
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	dir := t.TempDir()

	notifications, err := notify.Open([]notify.RoomID{"17", "42"},
		store.NewJSONFile[store.Notifications](filepath.Join(dir, "notifications.json")))
	require.NoError(t, err)
	tagStore, err := tags.Open(store.NewJSONFile[store.Tags](filepath.Join(dir, "tags.json")))
	require.NoError(t, err)

	e := &env{
		services: &Services{
			Notifications: notifications,
			Tags:          tagStore,
			Owners:        []string{ownerID},
		},
		logs: &bytes.Buffer{},
	}
	logger := slog.New(slog.NewTextHandler(e.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{
		WithLogger(logger),
		WithIDGenerator(testutil.NewFixedIDGenerator("inv-1")),
	}, opts...)
	e.dispatcher = NewDispatcher(e.services, opts...)
	return e
}

// dispatch runs content as Graham Chapman (13) in room 17.
func (e *env) dispatch(t *testing.T, content string) *testutil.RecordingReplier {
	t.Helper()
	return e.dispatchAs(t, content, "17", "13", "Graham Chapman")
}

func (e *env) dispatchAs(t *testing.T, content string, room notify.RoomID, userID, userName string) *testutil.RecordingReplier {
	t.Helper()
	out := &testutil.RecordingReplier{}
	err := e.dispatcher.Dispatch(context.Background(), Message{
		ID:       "m1",
		Room:     room,
		UserID:   userID,
		UserName: userName,
		Content:  content,
	}, out)
	require.NoError(t, err)
	return out
}

func (e *env) add(t *testing.T, room notify.RoomID, p, id, name string) {
	t.Helper()
	_, err := e.services.Notifications.Add(room, p, id, name)
	require.NoError(t, err)
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
