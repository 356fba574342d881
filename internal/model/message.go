package model

// DirectMessage 单聊消息明细
// Status 只在 sent / delivered 之间流转，客户端本地的 sending 状态不会到达服务端
type DirectMessage struct {
	MessageID    string `json:"messageId"`           // 幂等与状态更新键，调用方未提供时按 {fromUserId}_{毫秒时间戳} 生成
	FromUserID   string `json:"fromUserId"`          // 发送者 UID
	FromUsername string `json:"fromUsername"`        // 发送者显示名快照
	Message      string `json:"message"`             // 文本内容
	Timestamp    string `json:"timestamp"`           // 发送时间 (ISO8601)
	Status       string `json:"status"`              // sent / delivered
	SavedAt      string `json:"savedAt,omitempty"`   // 落盘时间，由存储层补写
}

// GroupMessage 群聊消息明细
// 群消息为广播语义，不做 per-recipient 投递状态跟踪
type GroupMessage struct {
	MessageID    string `json:"messageId"`
	GroupID      string `json:"groupId"`
	FromUserID   string `json:"fromUserId"`
	FromUsername string `json:"fromUsername"`
	Message      string `json:"message"`
	Timestamp    string `json:"timestamp"`
	SavedAt      string `json:"savedAt,omitempty"`
}
