package realtime

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"scrumtrack/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func change(id string) domain.Change {
	return domain.Change{
		Table: "risks",
		Op:    domain.OpInsert,
		ID:    id,
		At:    time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestPublishReachesEverySubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop(), 4)
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	hub.Publish(change("r1"))

	assert.Equal(t, "r1", (<-a).ID)
	assert.Equal(t, "r1", (<-b).ID)
	assert.Equal(t, 2, hub.Subscribers())
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1)
	slow, cancel := hub.Subscribe()
	defer cancel()

	hub.Publish(change("r1"))
	hub.Publish(change("r2"))

	assert.Equal(t, 0, hub.Subscribers())
	first, ok := <-slow
	require.True(t, ok)
	assert.Equal(t, "r1", first.ID)
	_, ok = <-slow
	assert.False(t, ok, "channel closed after drop")
}

func TestCancelIsIdempotentAfterDrop(t *testing.T) {
	hub := NewHub(zap.NewNop(), 1)
	_, cancel := hub.Subscribe()
	hub.Publish(change("r1"))
	hub.Publish(change("r2"))

	assert.NotPanics(t, cancel)
	assert.NotPanics(t, cancel)
}

func TestRunClosesHubOnCancel(t *testing.T) {
	hub := NewHub(zap.NewNop(), 0)
	ch, cancel := hub.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	stop()
	<-done

	_, ok := <-ch
	assert.False(t, ok)
	hub.Publish(change("ignored"))

	late, _ := hub.Subscribe()
	_, ok = <-late
	assert.False(t, ok, "subscribing to a closed hub yields a closed channel")
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return conn
}

func TestWebsocketStreamsChanges(t *testing.T) {
	hub := NewHub(zap.NewNop(), 0)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish(change("r1"))

	var got domain.Change
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, domain.OpInsert, got.Op)
	assert.True(t, got.At.Equal(change("r1").At))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestWebsocketClosedWhenHubCloses(t *testing.T) {
	hub := NewHub(zap.NewNop(), 0)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
