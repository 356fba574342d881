package dto

import (
	"SmartChat/internal/model"
	"time"
)

// CreateGroupReq 创建群组请求
type CreateGroupReq struct {
	GroupName string   `json:"groupName" binding:"required"`
	MemberIDs []string `json:"memberIds"`
}

// SendGroupMessageReq 发送群消息请求
type SendGroupMessageReq struct {
	GroupID string `json:"groupId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// GroupMemberReq 增删群成员请求 (add-group-member / remove-group-member 共用)
type GroupMemberReq struct {
	GroupID string `json:"groupId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
}

// GroupIDReq 仅携带群 ID 的请求 (delete-group / request-join-group / load-group-messages)
type GroupIDReq struct {
	GroupID string `json:"groupId" binding:"required"`
}

// HandleJoinRequestReq 处理加群请求
type HandleJoinRequestReq struct {
	GroupID string `json:"groupId" binding:"required"`
	UserID  string `json:"userId" binding:"required"`
	Action  string `json:"action" binding:"required,oneof=approve reject"`
}

// MemberDTO 群成员条目
type MemberDTO struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// JoinRequestDTO 待审批的加群请求条目
type JoinRequestDTO struct {
	GroupID     string    `json:"groupId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	RequestedAt time.Time `json:"requestedAt"`
}

// GroupDTO 群组快照，含待审批请求
type GroupDTO struct {
	GroupID         string           `json:"groupId"`
	Name            string           `json:"name"`
	Admin           MemberDTO        `json:"admin"`
	Members         []MemberDTO      `json:"members"`
	CreatedAt       time.Time        `json:"createdAt"`
	PendingRequests []JoinRequestDTO `json:"pendingRequests"`
}

// GroupsListDTO groups-list-updated 负载
type GroupsListDTO struct {
	Groups []*GroupDTO `json:"groups"`
}

// GroupNoticeDTO group-created / added-to-group / join-request-approved 负载
type GroupNoticeDTO struct {
	Group *GroupDTO `json:"group"`
}

// GroupRemovalDTO removed-from-group 负载
type GroupRemovalDTO struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

// GroupDeletedDTO group-deleted 负载
type GroupDeletedDTO struct {
	GroupID string `json:"groupId"`
}

// JoinRequestResultDTO join-request-sent / join-request-rejected 负载
type JoinRequestResultDTO struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
}

// GroupMessagesDTO group-messages 负载 (load-group-messages 的应答)
type GroupMessagesDTO struct {
	GroupID  string                `json:"groupId"`
	Messages []*model.GroupMessage `json:"messages"`
}
