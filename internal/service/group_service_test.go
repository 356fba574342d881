package service

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/model"
	"SmartChat/internal/pkg/consts"
	"SmartChat/internal/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type groupFixture struct {
	groups   GroupService
	presence PresenceService
	admin    *fakeConn
	member   *fakeConn
}

func newGroupFixture(t *testing.T) *groupFixture {
	t.Helper()
	repo, err := repository.NewChatRepo(t.TempDir(), "test-passphrase")
	require.NoError(t, err)
	presence := NewPresenceService()

	f := &groupFixture{
		groups:   NewGroupService(repo, presence),
		presence: presence,
		admin:    newFakeConn("c-admin"),
		member:   newFakeConn("c-member"),
	}
	presence.Connect("admin", "Admin", f.admin)
	presence.Connect("member", "Member", f.member)
	return f
}

// createGroup 建群并返回 groupID
func (f *groupFixture) createGroup(t *testing.T, memberIDs ...string) string {
	t.Helper()
	err := f.groups.CreateGroup(context.Background(), "admin", "Admin", &dto.CreateGroupReq{
		GroupName: "test group",
		MemberIDs: memberIDs,
	})
	require.NoError(t, err)

	payload, ok := f.admin.lastOf(consts.EventGroupCreated)
	require.True(t, ok)
	return payload.(dto.GroupNoticeDTO).Group.GroupID
}

func TestCreateGroup(t *testing.T) {
	f := newGroupFixture(t)
	f.createGroup(t, "member", "ghost", "admin")

	payload, ok := f.admin.lastOf(consts.EventGroupCreated)
	require.True(t, ok)
	group := payload.(dto.GroupNoticeDTO).Group
	assert.Equal(t, "test group", group.Name)
	assert.Equal(t, "admin", group.Admin.UserID)
	assert.True(t, group.Admin.IsAdmin)
	require.Len(t, group.Members, 3)

	// 离线成员以占位显示名入群
	names := map[string]string{}
	for _, m := range group.Members {
		names[m.UserID] = m.Username
	}
	assert.Equal(t, "Member", names["member"])
	assert.Equal(t, consts.OfflineMemberName, names["ghost"])

	_, ok = f.member.lastOf(consts.EventAddedToGroup)
	assert.True(t, ok)

	// 全体在线连接收到群列表广播
	for _, conn := range []*fakeConn{f.admin, f.member} {
		payload, ok := conn.lastOf(consts.EventGroupsListUpdated)
		require.True(t, ok)
		assert.Len(t, payload.(*dto.GroupsListDTO).Groups, 1)
	}
}

func TestAddMember(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t)
	ctx := context.Background()

	newcomer := newFakeConn("c-newcomer")
	f.presence.Connect("newcomer", "Newcomer", newcomer)

	// 非群主不可拉人
	err := f.groups.AddMember(ctx, "member", &dto.GroupMemberReq{GroupID: groupID, UserID: "newcomer"})
	assert.ErrorIs(t, err, ErrNotAdmin)

	// 目标离线无法入群
	err = f.groups.AddMember(ctx, "admin", &dto.GroupMemberReq{GroupID: groupID, UserID: "ghost"})
	assert.ErrorIs(t, err, ErrUserOffline)

	err = f.groups.AddMember(ctx, "admin", &dto.GroupMemberReq{GroupID: groupID, UserID: "newcomer"})
	require.NoError(t, err)
	payload, ok := newcomer.lastOf(consts.EventAddedToGroup)
	require.True(t, ok)
	assert.Equal(t, groupID, payload.(dto.GroupNoticeDTO).Group.GroupID)

	err = f.groups.AddMember(ctx, "admin", &dto.GroupMemberReq{GroupID: groupID, UserID: "newcomer"})
	assert.ErrorIs(t, err, ErrAlreadyMember)

	err = f.groups.AddMember(ctx, "admin", &dto.GroupMemberReq{GroupID: "no-such-group", UserID: "newcomer"})
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestRemoveMember(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t, "member")
	ctx := context.Background()

	err := f.groups.RemoveMember(ctx, "member", &dto.GroupMemberReq{GroupID: groupID, UserID: "member"})
	assert.ErrorIs(t, err, ErrNotAdmin)

	err = f.groups.RemoveMember(ctx, "admin", &dto.GroupMemberReq{GroupID: groupID, UserID: "admin"})
	assert.ErrorIs(t, err, ErrCannotRemoveAdmin)

	err = f.groups.RemoveMember(ctx, "admin", &dto.GroupMemberReq{GroupID: groupID, UserID: "outsider"})
	assert.ErrorIs(t, err, ErrNotMember)

	err = f.groups.RemoveMember(ctx, "admin", &dto.GroupMemberReq{GroupID: groupID, UserID: "member"})
	require.NoError(t, err)
	payload, ok := f.member.lastOf(consts.EventRemovedFromGroup)
	require.True(t, ok)
	removal := payload.(dto.GroupRemovalDTO)
	assert.Equal(t, groupID, removal.GroupID)
	assert.Equal(t, "test group", removal.Name)

	// 被移除后不再是成员
	err = f.groups.SendGroupMessage(ctx, "member", &dto.SendGroupMessageReq{GroupID: groupID, Message: "hi"})
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestDeleteGroup(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t, "member")
	ctx := context.Background()

	err := f.groups.DeleteGroup(ctx, "member", groupID)
	assert.ErrorIs(t, err, ErrNotAdmin)

	require.NoError(t, f.groups.DeleteGroup(ctx, "admin", groupID))
	for _, conn := range []*fakeConn{f.admin, f.member} {
		payload, ok := conn.lastOf(consts.EventGroupDeleted)
		require.True(t, ok)
		assert.Equal(t, groupID, payload.(dto.GroupDeletedDTO).GroupID)
	}

	groups, pending := f.groups.Stats()
	assert.Equal(t, 0, groups)
	assert.Equal(t, 0, pending)

	err = f.groups.DeleteGroup(ctx, "admin", groupID)
	assert.ErrorIs(t, err, ErrGroupNotFound)
}

func TestSendGroupMessage(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t, "member")
	ctx := context.Background()

	err := f.groups.SendGroupMessage(ctx, "outsider", &dto.SendGroupMessageReq{GroupID: groupID, Message: "hi"})
	assert.ErrorIs(t, err, ErrNotMember)

	err = f.groups.SendGroupMessage(ctx, "member", &dto.SendGroupMessageReq{GroupID: "no-such-group", Message: "hi"})
	assert.ErrorIs(t, err, ErrGroupNotFound)

	err = f.groups.SendGroupMessage(ctx, "member", &dto.SendGroupMessageReq{GroupID: groupID, Message: "hello all"})
	require.NoError(t, err)

	// 发送者本人也在扇出范围内
	for _, conn := range []*fakeConn{f.admin, f.member} {
		payload, ok := conn.lastOf(consts.EventReceiveGroupMessage)
		require.True(t, ok)
		msg := payload.(*model.GroupMessage)
		assert.Equal(t, "member", msg.FromUserID)
		assert.Equal(t, "hello all", msg.Message)
	}
}

func TestLoadGroupMessages(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t, "member")
	ctx := context.Background()

	require.NoError(t, f.groups.SendGroupMessage(ctx, "admin", &dto.SendGroupMessageReq{GroupID: groupID, Message: "first"}))

	err := f.groups.LoadGroupMessages(ctx, "outsider", groupID)
	assert.ErrorIs(t, err, ErrNotMember)

	require.NoError(t, f.groups.LoadGroupMessages(ctx, "member", groupID))
	payload, ok := f.member.lastOf(consts.EventGroupMessages)
	require.True(t, ok)
	history := payload.(dto.GroupMessagesDTO)
	assert.Equal(t, groupID, history.GroupID)
	require.Len(t, history.Messages, 1)
	assert.Equal(t, "first", history.Messages[0].Message)
}

func TestJoinRequestFlow(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t)
	ctx := context.Background()

	requester := newFakeConn("c-requester")
	f.presence.Connect("requester", "Requester", requester)

	require.NoError(t, f.groups.RequestJoin(ctx, "requester", groupID))

	payload, ok := f.admin.lastOf(consts.EventJoinRequestReceived)
	require.True(t, ok)
	reqDTO := payload.(dto.JoinRequestDTO)
	assert.Equal(t, "requester", reqDTO.UserID)
	assert.Equal(t, "Requester", reqDTO.Username)

	payload, ok = requester.lastOf(consts.EventJoinRequestSent)
	require.True(t, ok)
	assert.Equal(t, groupID, payload.(dto.JoinRequestResultDTO).GroupID)

	// 同一用户同一群组至多一条待审批请求
	err := f.groups.RequestJoin(ctx, "requester", groupID)
	assert.ErrorIs(t, err, ErrDuplicateJoinRequest)

	// 已是成员不可再申请
	err = f.groups.RequestJoin(ctx, "admin", groupID)
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// 仅群主可审批
	err = f.groups.HandleJoinRequest(ctx, "member", &dto.HandleJoinRequestReq{
		GroupID: groupID, UserID: "requester", Action: consts.JoinActionApprove,
	})
	assert.ErrorIs(t, err, ErrNotAdmin)

	err = f.groups.HandleJoinRequest(ctx, "admin", &dto.HandleJoinRequestReq{
		GroupID: groupID, UserID: "nobody", Action: consts.JoinActionApprove,
	})
	assert.ErrorIs(t, err, ErrRequestNotFound)

	require.NoError(t, f.groups.HandleJoinRequest(ctx, "admin", &dto.HandleJoinRequestReq{
		GroupID: groupID, UserID: "requester", Action: consts.JoinActionApprove,
	}))
	payload, ok = requester.lastOf(consts.EventJoinRequestApproved)
	require.True(t, ok)
	group := payload.(dto.GroupNoticeDTO).Group
	require.Len(t, group.Members, 2)
	assert.Empty(t, group.PendingRequests)

	_, pending := f.groups.Stats()
	assert.Equal(t, 0, pending)
}

func TestApproveOfflineRequesterKeepsRequest(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t)
	ctx := context.Background()

	requester := newFakeConn("c-requester")
	f.presence.Connect("requester", "Requester", requester)
	require.NoError(t, f.groups.RequestJoin(ctx, "requester", groupID))
	f.presence.Disconnect("c-requester")

	// 请求者离线时批准失败，请求保留待重试
	err := f.groups.HandleJoinRequest(ctx, "admin", &dto.HandleJoinRequestReq{
		GroupID: groupID, UserID: "requester", Action: consts.JoinActionApprove,
	})
	assert.ErrorIs(t, err, ErrUserOffline)
	_, pending := f.groups.Stats()
	assert.Equal(t, 1, pending)

	f.presence.Connect("requester", "Requester", requester)
	require.NoError(t, f.groups.HandleJoinRequest(ctx, "admin", &dto.HandleJoinRequestReq{
		GroupID: groupID, UserID: "requester", Action: consts.JoinActionApprove,
	}))
	_, pending = f.groups.Stats()
	assert.Equal(t, 0, pending)
}

func TestRejectJoinRequest(t *testing.T) {
	f := newGroupFixture(t)
	groupID := f.createGroup(t)
	ctx := context.Background()

	requester := newFakeConn("c-requester")
	f.presence.Connect("requester", "Requester", requester)
	require.NoError(t, f.groups.RequestJoin(ctx, "requester", groupID))

	require.NoError(t, f.groups.HandleJoinRequest(ctx, "admin", &dto.HandleJoinRequestReq{
		GroupID: groupID, UserID: "requester", Action: consts.JoinActionReject,
	}))

	payload, ok := requester.lastOf(consts.EventJoinRequestRejected)
	require.True(t, ok)
	assert.Equal(t, groupID, payload.(dto.JoinRequestResultDTO).GroupID)

	// 拒绝同样消费请求，且请求者未入群
	_, pending := f.groups.Stats()
	assert.Equal(t, 0, pending)
	err := f.groups.SendGroupMessage(ctx, "requester", &dto.SendGroupMessageReq{GroupID: groupID, Message: "hi"})
	assert.ErrorIs(t, err, ErrNotMember)
}
