package consts

// 客户端 -> 服务端事件
const (
	EventSendMessage        = "send-message"
	EventTyping             = "typing"
	EventStopTyping         = "stop-typing"
	EventLoadDirectMessages = "load-direct-messages"
	EventCreateGroup        = "create-group"
	EventSendGroupMessage   = "send-group-message"
	EventAddGroupMember     = "add-group-member"
	EventRemoveGroupMember  = "remove-group-member"
	EventDeleteGroup        = "delete-group"
	EventRequestJoinGroup   = "request-join-group"
	EventHandleJoinRequest  = "handle-join-request"
	EventLoadGroupMessages  = "load-group-messages"
)

// 服务端 -> 客户端事件
const (
	EventUserListUpdated     = "user-list-updated"
	EventGroupsListUpdated   = "groups-list-updated"
	EventReceiveMessage      = "receive-message"
	EventReceiveGroupMessage = "receive-group-message"
	EventMessageSent         = "message-sent"
	EventMessageDelivered    = "message-delivered"
	EventMessagesDelivered   = "messages-delivered"
	EventMessageError        = "message-error"
	EventUserTyping          = "user-typing"
	EventUserStopTyping      = "user-stop-typing"
	EventUnreadNotification  = "unread-messages-notification"
	EventDirectMessages      = "direct-messages"
	EventGroupMessages       = "group-messages"
	EventGroupCreated        = "group-created"
	EventAddedToGroup        = "added-to-group"
	EventRemovedFromGroup    = "removed-from-group"
	EventGroupDeleted        = "group-deleted"
	EventJoinRequestReceived = "join-request-received"
	EventJoinRequestSent     = "join-request-sent"
	EventJoinRequestApproved = "join-request-approved"
	EventJoinRequestRejected = "join-request-rejected"
)

// 消息投递状态
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
)

// 加群请求处理动作
const (
	JoinActionApprove = "approve"
	JoinActionReject  = "reject"
)
