package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records every frame written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Event)
	}
	return out
}

func startTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		hub.Wait()
	})
	return hub
}

func connect(t *testing.T, hub *Hub, id, username string) (*Client, *fakeConn) {
	t.Helper()
	conn := &fakeConn{}
	client := &Client{ID: id, Username: username, Conn: conn}
	before := hub.ClientCount()
	hub.Register(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() > before
	}, time.Second, 5*time.Millisecond)
	return client, conn
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := startTestHub(t)
	client, _ := connect(t, hub, "c1", "alice")

	hub.JoinRoom(client.ID, "global")
	hub.JoinRoom(client.ID, "global")
	hub.JoinRoom(client.ID, "global")

	assert.Equal(t, 1, hub.RoomClientCount("global"))
	assert.Equal(t, "global", client.RoomTag)
}

func TestHub_JoinMovesBetweenRooms(t *testing.T) {
	hub := startTestHub(t)
	client, _ := connect(t, hub, "c1", "alice")

	hub.JoinRoom(client.ID, "global")
	hub.JoinRoom(client.ID, "random")

	assert.Equal(t, 0, hub.RoomClientCount("global"))
	assert.Equal(t, 1, hub.RoomClientCount("random"))
}

func TestHub_BroadcastReachesOnlyRoomMembers(t *testing.T) {
	hub := startTestHub(t)
	_, connA := connect(t, hub, "a", "alice")
	_, connB := connect(t, hub, "b", "bob")
	_, connC := connect(t, hub, "c", "carol")

	hub.JoinRoom("a", "global")
	hub.JoinRoom("b", "global")
	// carol never joins global

	hub.Broadcast("global", "message", map[string]string{"text": "hello"})

	require.Eventually(t, func() bool {
		return len(connA.events()) == 1 && len(connB.events()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"message"}, connA.events())
	assert.Equal(t, []string{"message"}, connB.events())
	assert.Empty(t, connC.events(), "client outside the room must receive nothing")
}

func TestHub_BroadcastExceptSkipsSender(t *testing.T) {
	hub := startTestHub(t)
	_, connA := connect(t, hub, "a", "alice")
	_, connB := connect(t, hub, "b", "bob")

	hub.JoinRoom("a", "global")
	hub.JoinRoom("b", "global")

	hub.BroadcastExcept("global", "typing", map[string]any{"isTyping": true}, "a")

	require.Eventually(t, func() bool {
		return len(connB.events()) == 1
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, connA.events(), "sender must not receive its own typing relay")
	assert.Equal(t, []string{"typing"}, connB.events())
}

func TestHub_BroadcastToEmptyRoomIsNoOp(t *testing.T) {
	hub := startTestHub(t)
	_, conn := connect(t, hub, "a", "alice")

	hub.Broadcast("ghost-room", "message", map[string]string{"text": "lost"})
	// Give the loop a chance to process before asserting nothing arrived.
	hub.Broadcast("ghost-room", "message", map[string]string{"text": "lost again"})
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, conn.events())
}

func TestHub_UnregisterRemovesMembership(t *testing.T) {
	hub := startTestHub(t)
	client, conn := connect(t, hub, "a", "alice")
	hub.JoinRoom(client.ID, "global")

	hub.Unregister(client)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, hub.RoomClientCount("global"))

	// A broadcast after disconnect must have no observable effect.
	hub.Broadcast("global", "message", map[string]string{"text": "late"})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, conn.events())
}

func TestHub_SendToTargetsSingleClient(t *testing.T) {
	hub := startTestHub(t)
	_, connA := connect(t, hub, "a", "alice")
	_, connB := connect(t, hub, "b", "bob")

	hub.JoinRoom("a", "global")
	hub.JoinRoom("b", "global")

	hub.SendTo("a", "history", []string{})

	assert.Equal(t, []string{"history"}, connA.events())
	assert.Empty(t, connB.events(), "history replay goes to the requester only")
}
