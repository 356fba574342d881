package service

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/pkg/consts"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectAndDisconnect(t *testing.T) {
	presence := NewPresenceService()
	conn := newFakeConn("c1")

	sess := presence.Connect("u1", "Alice", conn)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "Alice", sess.Username)

	resolved, ok := presence.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, "c1", resolved.ID())

	username, ok := presence.Username("u1")
	require.True(t, ok)
	assert.Equal(t, "Alice", username)
	assert.Equal(t, 1, presence.OnlineCount())

	_, ok = presence.LastSeen("u1")
	assert.False(t, ok)

	presence.Disconnect("c1")
	_, ok = presence.Resolve("u1")
	assert.False(t, ok)
	assert.Equal(t, 0, presence.OnlineCount())

	lastSeen, ok := presence.LastSeen("u1")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), lastSeen, time.Second)
}

func TestReconnectLastWriterWins(t *testing.T) {
	presence := NewPresenceService()
	old := newFakeConn("c-old")
	fresh := newFakeConn("c-new")

	presence.Connect("u1", "Alice", old)
	presence.Connect("u1", "Alice", fresh)

	resolved, ok := presence.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, "c-new", resolved.ID())
	assert.Equal(t, 1, presence.OnlineCount())

	// 旧连接随后断开，不应摘除新会话
	presence.Disconnect("c-old")
	resolved, ok = presence.Resolve("u1")
	require.True(t, ok)
	assert.Equal(t, "c-new", resolved.ID())

	presence.Disconnect("c-new")
	_, ok = presence.Resolve("u1")
	assert.False(t, ok)
}

func TestUserListBroadcastOnConnect(t *testing.T) {
	presence := NewPresenceService()
	conn1 := newFakeConn("c1")
	conn2 := newFakeConn("c2")

	presence.Connect("u1", "Alice", conn1)
	presence.Connect("u2", "Bob", conn2)

	// 第二人上线时双方都应收到含两人的最新列表
	for _, conn := range []*fakeConn{conn1, conn2} {
		payload, ok := conn.lastOf(consts.EventUserListUpdated)
		require.True(t, ok)
		list := payload.(dto.UserListDTO)
		assert.Len(t, list.Users, 2)
	}

	conn1.reset()
	presence.Disconnect("c2")
	payload, ok := conn1.lastOf(consts.EventUserListUpdated)
	require.True(t, ok)
	assert.Len(t, payload.(dto.UserListDTO).Users, 1)
}

func TestEmitToOfflineUser(t *testing.T) {
	presence := NewPresenceService()
	assert.False(t, presence.EmitTo("nobody", consts.EventReceiveMessage, nil))

	conn := newFakeConn("c1")
	presence.Connect("u1", "Alice", conn)
	assert.True(t, presence.EmitTo("u1", consts.EventUserTyping, dto.TypingDTO{FromUserID: "u2"}))
	assert.Len(t, conn.eventsOf(consts.EventUserTyping), 1)
}

func TestRefreshLastSeen(t *testing.T) {
	presence := NewPresenceService()
	presence.RefreshLastSeen("u1")
	lastSeen, ok := presence.LastSeen("u1")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), lastSeen, time.Second)
}
