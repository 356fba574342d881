package service

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/model"
	"SmartChat/internal/pkg/consts"
	"SmartChat/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// GroupService 群组生命周期、成员授权与加群审批
// 群与待审批请求均为进程内存态；群消息历史由 ChatRepo 加密落盘
type GroupService interface {
	CreateGroup(ctx context.Context, creatorID, creatorName string, req *dto.CreateGroupReq) error
	AddMember(ctx context.Context, requesterID string, req *dto.GroupMemberReq) error
	RemoveMember(ctx context.Context, requesterID string, req *dto.GroupMemberReq) error
	DeleteGroup(ctx context.Context, requesterID, groupID string) error
	SendGroupMessage(ctx context.Context, fromUserID string, req *dto.SendGroupMessageReq) error
	LoadGroupMessages(ctx context.Context, userID, groupID string) error
	RequestJoin(ctx context.Context, userID, groupID string) error
	HandleJoinRequest(ctx context.Context, adminID string, req *dto.HandleJoinRequestReq) error
	// Snapshot 全量群组快照 (含待审批请求)，用于 groups-list-updated 广播
	Snapshot() *dto.GroupsListDTO
	Stats() (groups int, pendingRequests int)
}

type groupServiceImpl struct {
	chatRepo repository.ChatRepo
	presence PresenceService

	mu       sync.RWMutex
	groups   map[string]*model.Group
	requests map[string][]*model.JoinRequest
}

func NewGroupService(chatRepo repository.ChatRepo, presence PresenceService) GroupService {
	return &groupServiceImpl{
		chatRepo: chatRepo,
		presence: presence,
		groups:   map[string]*model.Group{},
		requests: map[string][]*model.JoinRequest{},
	}
}

// CreateGroup 创建者即唯一群主；离线成员的显示名以占位符记录
func (s *groupServiceImpl) CreateGroup(ctx context.Context, creatorID, creatorName string, req *dto.CreateGroupReq) error {
	admin := model.GroupMember{UserID: creatorID, Username: creatorName, IsAdmin: true}
	group := &model.Group{
		GroupID:   uuid.NewString(),
		Name:      req.GroupName,
		Admin:     admin,
		Members:   []model.GroupMember{admin},
		CreatedAt: time.Now(),
	}

	for _, memberID := range req.MemberIDs {
		if memberID == creatorID || group.IsMember(memberID) {
			continue
		}
		username, ok := s.presence.Username(memberID)
		if !ok {
			username = consts.OfflineMemberName
		}
		group.Members = append(group.Members, model.GroupMember{UserID: memberID, Username: username})
	}

	s.mu.Lock()
	s.groups[group.GroupID] = group
	s.mu.Unlock()

	log.Info("Group created", "groupID", group.GroupID, "name", group.Name, "admin", creatorID, "members", len(group.Members))

	snapshot := s.toGroupDTO(group)
	s.presence.EmitTo(creatorID, consts.EventGroupCreated, dto.GroupNoticeDTO{Group: snapshot})
	for _, m := range group.Members {
		if m.UserID == creatorID {
			continue
		}
		s.presence.EmitTo(m.UserID, consts.EventAddedToGroup, dto.GroupNoticeDTO{Group: snapshot})
	}
	s.broadcastGroups()
	return nil
}

// AddMember 仅群主可拉人；从未上线过的用户无身份记录，无法入群
func (s *groupServiceImpl) AddMember(ctx context.Context, requesterID string, req *dto.GroupMemberReq) error {
	username, online := s.presence.Username(req.UserID)
	if !online {
		return ErrUserOffline
	}

	s.mu.Lock()
	group, ok := s.groups[req.GroupID]
	if !ok {
		s.mu.Unlock()
		return ErrGroupNotFound
	}
	if group.Admin.UserID != requesterID {
		s.mu.Unlock()
		return ErrNotAdmin
	}
	if group.IsMember(req.UserID) {
		s.mu.Unlock()
		return ErrAlreadyMember
	}
	group.Members = append(group.Members, model.GroupMember{UserID: req.UserID, Username: username})
	snapshot := s.toGroupDTOLocked(group)
	s.mu.Unlock()

	s.presence.EmitTo(req.UserID, consts.EventAddedToGroup, dto.GroupNoticeDTO{Group: snapshot})
	s.broadcastGroups()
	return nil
}

// RemoveMember 仅群主可踢人，群主自身不可被移除
func (s *groupServiceImpl) RemoveMember(ctx context.Context, requesterID string, req *dto.GroupMemberReq) error {
	s.mu.Lock()
	group, ok := s.groups[req.GroupID]
	if !ok {
		s.mu.Unlock()
		return ErrGroupNotFound
	}
	if group.Admin.UserID != requesterID {
		s.mu.Unlock()
		return ErrNotAdmin
	}
	if req.UserID == group.Admin.UserID {
		s.mu.Unlock()
		return ErrCannotRemoveAdmin
	}
	if !group.IsMember(req.UserID) {
		s.mu.Unlock()
		return ErrNotMember
	}
	members := group.Members[:0]
	for _, m := range group.Members {
		if m.UserID != req.UserID {
			members = append(members, m)
		}
	}
	group.Members = members
	name := group.Name
	s.mu.Unlock()

	s.presence.EmitTo(req.UserID, consts.EventRemovedFromGroup, dto.GroupRemovalDTO{GroupID: req.GroupID, Name: name})
	s.broadcastGroups()
	return nil
}

// DeleteGroup 删除群组、待审批请求与加密历史文件，并广播删除事件
func (s *groupServiceImpl) DeleteGroup(ctx context.Context, requesterID, groupID string) error {
	s.mu.Lock()
	group, ok := s.groups[groupID]
	if !ok {
		s.mu.Unlock()
		return ErrGroupNotFound
	}
	if group.Admin.UserID != requesterID {
		s.mu.Unlock()
		return ErrNotAdmin
	}
	delete(s.groups, groupID)
	delete(s.requests, groupID)
	s.mu.Unlock()

	if err := s.chatRepo.DeleteGroupChat(ctx, groupID); err != nil {
		log.Error("Failed to delete group conversation file", "groupID", groupID, "err", err)
	}
	log.Info("Group deleted", "groupID", groupID, "by", requesterID)

	s.presence.Broadcast(consts.EventGroupDeleted, dto.GroupDeletedDTO{GroupID: groupID})
	s.broadcastGroups()
	return nil
}

// SendGroupMessage 群消息为广播语义：落盘后向全体成员的活动连接扇出，不跟踪送达
func (s *groupServiceImpl) SendGroupMessage(ctx context.Context, fromUserID string, req *dto.SendGroupMessageReq) error {
	s.mu.RLock()
	group, ok := s.groups[req.GroupID]
	if !ok {
		s.mu.RUnlock()
		return ErrGroupNotFound
	}
	if !group.IsMember(fromUserID) {
		s.mu.RUnlock()
		return ErrNotMember
	}
	memberIDs := make([]string, 0, len(group.Members))
	for _, m := range group.Members {
		memberIDs = append(memberIDs, m.UserID)
	}
	s.mu.RUnlock()

	username, ok := s.presence.Username(fromUserID)
	if !ok {
		username = consts.OfflineMemberName
	}
	msg := &model.GroupMessage{
		MessageID:    fmt.Sprintf("%s_%d", fromUserID, time.Now().UnixMilli()),
		GroupID:      req.GroupID,
		FromUserID:   fromUserID,
		FromUsername: username,
		Message:      req.Message,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := s.chatRepo.SaveGroupMessage(ctx, req.GroupID, msg); err != nil {
		return fmt.Errorf("persist group message: %w", err)
	}

	for _, memberID := range memberIDs {
		s.presence.EmitTo(memberID, consts.EventReceiveGroupMessage, msg)
	}
	return nil
}

// LoadGroupMessages 返回完整群历史，仅群成员可读
func (s *groupServiceImpl) LoadGroupMessages(ctx context.Context, userID, groupID string) error {
	s.mu.RLock()
	group, ok := s.groups[groupID]
	if !ok {
		s.mu.RUnlock()
		return ErrGroupNotFound
	}
	if !group.IsMember(userID) {
		s.mu.RUnlock()
		return ErrNotMember
	}
	s.mu.RUnlock()

	messages, err := s.chatRepo.LoadGroupMessages(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group messages: %w", err)
	}
	s.presence.EmitTo(userID, consts.EventGroupMessages, dto.GroupMessagesDTO{GroupID: groupID, Messages: messages})
	return nil
}

// RequestJoin 同一用户对同一群组至多一条待审批请求
// 群主离线时请求仍被记录，下次查看群组时可见
func (s *groupServiceImpl) RequestJoin(ctx context.Context, userID, groupID string) error {
	username, ok := s.presence.Username(userID)
	if !ok {
		username = consts.OfflineMemberName
	}

	s.mu.Lock()
	group, ok := s.groups[groupID]
	if !ok {
		s.mu.Unlock()
		return ErrGroupNotFound
	}
	if group.IsMember(userID) {
		s.mu.Unlock()
		return ErrAlreadyMember
	}
	for _, r := range s.requests[groupID] {
		if r.UserID == userID {
			s.mu.Unlock()
			return ErrDuplicateJoinRequest
		}
	}
	request := &model.JoinRequest{
		GroupID:     groupID,
		UserID:      userID,
		Username:    username,
		RequestedAt: time.Now(),
	}
	s.requests[groupID] = append(s.requests[groupID], request)
	adminID := group.Admin.UserID
	name := group.Name
	s.mu.Unlock()

	var reqDTO dto.JoinRequestDTO
	if err := copier.Copy(&reqDTO, request); err != nil {
		return err
	}
	s.presence.EmitTo(adminID, consts.EventJoinRequestReceived, reqDTO)
	s.presence.EmitTo(userID, consts.EventJoinRequestSent, dto.JoinRequestResultDTO{GroupID: groupID, Name: name})
	s.broadcastGroups()
	return nil
}

// HandleJoinRequest 群主审批；无论通过或拒绝都恰好消费一条请求
// 批准要求请求者此刻在线 (成员显示名取自活动会话)，离线时报错且请求保留
func (s *groupServiceImpl) HandleJoinRequest(ctx context.Context, adminID string, req *dto.HandleJoinRequestReq) error {
	if req.Action != consts.JoinActionApprove && req.Action != consts.JoinActionReject {
		return ErrJoinActionInvalid
	}

	s.mu.Lock()
	group, ok := s.groups[req.GroupID]
	if !ok {
		s.mu.Unlock()
		return ErrGroupNotFound
	}
	if group.Admin.UserID != adminID {
		s.mu.Unlock()
		return ErrNotAdmin
	}
	idx := -1
	for i, r := range s.requests[req.GroupID] {
		if r.UserID == req.UserID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrRequestNotFound
	}

	if req.Action == consts.JoinActionApprove {
		username, online := s.presence.Username(req.UserID)
		if !online {
			// 请求保留，群主可在请求者重新上线后再批准
			s.mu.Unlock()
			return ErrUserOffline
		}
		group.Members = append(group.Members, model.GroupMember{UserID: req.UserID, Username: username})
	}
	s.requests[req.GroupID] = append(s.requests[req.GroupID][:idx], s.requests[req.GroupID][idx+1:]...)
	snapshot := s.toGroupDTOLocked(group)
	name := group.Name
	s.mu.Unlock()

	if req.Action == consts.JoinActionApprove {
		s.presence.EmitTo(req.UserID, consts.EventJoinRequestApproved, dto.GroupNoticeDTO{Group: snapshot})
	} else {
		s.presence.EmitTo(req.UserID, consts.EventJoinRequestRejected, dto.JoinRequestResultDTO{GroupID: req.GroupID, Name: name})
	}
	s.broadcastGroups()
	return nil
}

func (s *groupServiceImpl) Snapshot() *dto.GroupsListDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]*dto.GroupDTO, 0, len(s.groups))
	for _, g := range s.groups {
		list = append(list, s.toGroupDTOLocked(g))
	}
	return &dto.GroupsListDTO{Groups: list}
}

func (s *groupServiceImpl) Stats() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pending := 0
	for _, rs := range s.requests {
		pending += len(rs)
	}
	return len(s.groups), pending
}

func (s *groupServiceImpl) toGroupDTO(group *model.Group) *dto.GroupDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.toGroupDTOLocked(group)
}

// toGroupDTOLocked 调用方需已持有 s.mu
func (s *groupServiceImpl) toGroupDTOLocked(group *model.Group) *dto.GroupDTO {
	snapshot := &dto.GroupDTO{}
	if err := copier.Copy(snapshot, group); err != nil {
		log.Error("Failed to copy group snapshot", "groupID", group.GroupID, "err", err)
	}
	snapshot.PendingRequests = make([]dto.JoinRequestDTO, 0, len(s.requests[group.GroupID]))
	for _, r := range s.requests[group.GroupID] {
		var reqDTO dto.JoinRequestDTO
		if err := copier.Copy(&reqDTO, r); err != nil {
			continue
		}
		snapshot.PendingRequests = append(snapshot.PendingRequests, reqDTO)
	}
	return snapshot
}

func (s *groupServiceImpl) broadcastGroups() {
	s.presence.Broadcast(consts.EventGroupsListUpdated, s.Snapshot())
}
