package inspector

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/scenery/internal/core/events/bus"
	"github.com/zeusync/scenery/internal/core/scene"
)

func dial(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	u := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return srv.Clients() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestStatsAreBroadcast(t *testing.T) {
	srv := New(nil)
	conn := dial(t, srv)

	srv.PublishStats(scene.Stats{Scene: "S", Frame: 3, Live: 2, LastTick: time.Millisecond}, bus.Metrics{Published: 7})

	f := readFrame(t, conn)
	assert.Equal(t, FrameStats, f.Type)
	require.NotNil(t, f.Stats)
	assert.Equal(t, "S", f.Stats.Scene)
	assert.Equal(t, uint64(3), f.Stats.Frame)
	assert.Equal(t, time.Millisecond, f.Stats.LastTick)
	require.NotNil(t, f.Bus)
	assert.Equal(t, uint64(7), f.Bus.Published)
	assert.Nil(t, f.Event)
}

func TestBusEventsAreForwarded(t *testing.T) {
	srv := New(nil)
	conn := dial(t, srv)

	b := bus.New()
	sub, err := srv.Attach(b)
	require.NoError(t, err)
	defer func() { _ = b.Unsubscribe(sub) }()

	id := uuid.New()
	require.NoError(t, b.Publish(bus.Event{Type: bus.ObjectActivated, Scene: "S", ObjectID: id, Object: "A", Frame: 1}))

	f := readFrame(t, conn)
	assert.Equal(t, FrameEvent, f.Type)
	require.NotNil(t, f.Event)
	assert.Equal(t, bus.ObjectActivated, f.Event.Type)
	assert.Equal(t, id, f.Event.ObjectID)
	assert.Equal(t, "A", f.Event.Object)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	srv := New(nil)
	conn := dial(t, srv)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return srv.Clients() == 0 }, time.Second, 5*time.Millisecond)

	srv.PublishStats(scene.Stats{}, bus.Metrics{})
}

func TestStartAndShutdown(t *testing.T) {
	srv := New(nil)
	require.NoError(t, srv.Start("127.0.0.1:0"))
	assert.ErrorIs(t, srv.Start("127.0.0.1:0"), ErrAlreadyRunning)

	addr := srv.Addr()
	require.NotNil(t, addr)
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr.String()+"/", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	require.Eventually(t, func() bool { return srv.Clients() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.Nil(t, srv.Addr())
	assert.ErrorIs(t, srv.Shutdown(ctx), ErrNotRunning)
	assert.Eventually(t, func() bool { return srv.Clients() == 0 }, time.Second, 5*time.Millisecond)
}
