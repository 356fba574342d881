package dto

import "SmartChat/internal/model"

// SendMessageReq 发送单聊消息请求
type SendMessageReq struct {
	ToUserID     string `json:"toUserId" binding:"required"`
	Message      string `json:"message" binding:"required"`
	FromUserID   string `json:"fromUserId"`
	FromUsername string `json:"fromUsername"`
	MessageID    string `json:"messageId"`
}

// TypingReq 输入状态透传请求 (typing / stop-typing 共用)
type TypingReq struct {
	ToUserID string `json:"toUserId" binding:"required"`
}

// LoadDirectMessagesReq 拉取单聊历史请求
type LoadDirectMessagesReq struct {
	OtherUserID string `json:"otherUserId" binding:"required"`
}

// OnlineUserDTO 在线用户条目
type OnlineUserDTO struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// UserListDTO user-list-updated 负载
type UserListDTO struct {
	Users []OnlineUserDTO `json:"users"`
}

// MessageAckDTO message-sent / message-delivered 负载
type MessageAckDTO struct {
	MessageID string `json:"messageId"`
	ToUserID  string `json:"toUserId"`
	Status    string `json:"status"`
}

// MessagesDeliveredDTO messages-delivered 负载
// 收件人拉取历史后，向原发送者确认这批消息已送达
type MessagesDeliveredDTO struct {
	ToUserID   string   `json:"toUserId"`
	MessageIDs []string `json:"messageIds"`
}

// MessageErrorDTO message-error 负载
type MessageErrorDTO struct {
	Error   string `json:"error"`
	Context string `json:"context"`
}

// TypingDTO user-typing / user-stop-typing 负载
type TypingDTO struct {
	FromUserID   string `json:"fromUserId"`
	FromUsername string `json:"fromUsername"`
}

// DirectMessagesDTO direct-messages 负载 (load-direct-messages 的应答)
type DirectMessagesDTO struct {
	OtherUserID string                 `json:"otherUserId"`
	Messages    []*model.DirectMessage `json:"messages"`
}

// UnreadConversationDTO 单个会话的未读摘要
type UnreadConversationDTO struct {
	FromUserID   string               `json:"fromUserId"`
	FromUsername string               `json:"fromUsername"`
	Count        int                  `json:"count"`
	LastMessage  *model.DirectMessage `json:"lastMessage"`
}

// UnreadNotificationDTO unread-messages-notification 负载
type UnreadNotificationDTO struct {
	TotalCount    int                     `json:"totalCount"`
	Conversations []UnreadConversationDTO `json:"conversations"`
}
