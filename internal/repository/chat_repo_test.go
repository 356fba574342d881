package repository

import (
	"SmartChat/internal/model"
	"SmartChat/internal/pkg/consts"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "unit-test-passphrase"

func newTestRepo(t *testing.T) ChatRepo {
	t.Helper()
	repo, err := NewChatRepo(t.TempDir(), testPassphrase)
	require.NoError(t, err)
	return repo
}

func directMsg(id, from, text string) *model.DirectMessage {
	return &model.DirectMessage{
		MessageID:    id,
		FromUserID:   from,
		FromUsername: "user-" + from,
		Message:      text,
		Timestamp:    "2026-08-31T10:00:00.000Z",
		Status:       consts.StatusSent,
	}
}

func TestDirectChatIDSymmetric(t *testing.T) {
	assert.Equal(t, DirectChatID("alice", "bob"), DirectChatID("bob", "alice"))
	assert.Equal(t, "direct_alice_bob", DirectChatID("bob", "alice"))
}

func TestSaveLoadDirectMessages(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", directMsg("m1", "u1", "first")))
	require.NoError(t, repo.SaveDirectMessage(ctx, "u2", "u1", directMsg("m2", "u2", "second")))

	// 参与者顺序与读取结果无关
	list, err := repo.LoadDirectMessages(ctx, "u2", "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].MessageID)
	assert.Equal(t, "m2", list[1].MessageID)
	assert.NotEmpty(t, list[0].SavedAt)
}

func TestLoadDirectMessagesEmptyConversation(t *testing.T) {
	repo := newTestRepo(t)

	list, err := repo.LoadDirectMessages(context.Background(), "u1", "nobody")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestCorruptedFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewChatRepo(dir, testPassphrase)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", directMsg("m1", "u1", "hello")))

	path := filepath.Join(dir, consts.DirectChatDir, DirectChatID("u1", "u2")+consts.ChatFileSuffix)
	require.NoError(t, os.WriteFile(path, []byte("garbage, not a valid blob"), 0o600))

	list, err := repo.LoadDirectMessages(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	// 损坏会话仍可继续写入，历史从头开始
	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", directMsg("m2", "u1", "after corruption")))
	list, err = repo.LoadDirectMessages(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "m2", list[0].MessageID)
}

func TestMarkDirectDelivered(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", directMsg("m1", "u1", "offline 1")))
	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", directMsg("m2", "u1", "offline 2")))
	mine := directMsg("m3", "u2", "my own")
	mine.Status = consts.StatusDelivered
	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", mine))

	// u2 拉取历史，只有 u1 发出的 sent 消息发生跃迁
	delivered, err := repo.MarkDirectDelivered(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, delivered)

	list, err := repo.LoadDirectMessages(ctx, "u1", "u2")
	require.NoError(t, err)
	for _, m := range list {
		assert.Equal(t, consts.StatusDelivered, m.Status)
	}

	// 重复确认不再产生跃迁
	delivered, err = repo.MarkDirectDelivered(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Empty(t, delivered)
}

func TestDeleteDirectChatIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", directMsg("m1", "u1", "bye")))
	require.NoError(t, repo.DeleteDirectChat(ctx, "u2", "u1"))

	list, err := repo.LoadDirectMessages(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Empty(t, list)

	// 再次删除不存在的会话不报错
	require.NoError(t, repo.DeleteDirectChat(ctx, "u1", "u2"))
	require.NoError(t, repo.DeleteDirectChat(ctx, "u1", "never-existed"))
}

func TestListDirectPartners(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveDirectMessage(ctx, "alice", "bob", directMsg("m1", "bob", "hi")))
	require.NoError(t, repo.SaveDirectMessage(ctx, "alice", "zed", directMsg("m2", "zed", "hi")))
	require.NoError(t, repo.SaveDirectMessage(ctx, "bob", "zed", directMsg("m3", "bob", "hi")))

	partners, err := repo.ListDirectPartners(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "zed"}, partners)

	partners, err = repo.ListDirectPartners(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, partners)
}

func TestConcurrentSavesSameConversation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := directMsg(fmt.Sprintf("m%d", i), "u1", "concurrent")
			assert.NoError(t, repo.SaveDirectMessage(ctx, "u1", "u2", msg))
		}(i)
	}
	wg.Wait()

	list, err := repo.LoadDirectMessages(ctx, "u1", "u2")
	require.NoError(t, err)
	assert.Len(t, list, n)
}

func TestGroupMessagesLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	msg := &model.GroupMessage{
		MessageID:    "gm1",
		GroupID:      "g1",
		FromUserID:   "u1",
		FromUsername: "user-u1",
		Message:      "hello group",
		Timestamp:    "2026-08-31T10:00:00.000Z",
	}
	require.NoError(t, repo.SaveGroupMessage(ctx, "g1", msg))

	list, err := repo.LoadGroupMessages(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "gm1", list[0].MessageID)
	assert.NotEmpty(t, list[0].SavedAt)

	require.NoError(t, repo.DeleteGroupChat(ctx, "g1"))
	list, err = repo.LoadGroupMessages(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, repo.DeleteGroupChat(ctx, "g1"))
}
