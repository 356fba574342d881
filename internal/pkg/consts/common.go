package consts

// 存储布局常量
const (
	DirectChatDir  = "direct"
	GroupChatDir   = "groups"
	ChatFileSuffix = ".enc"

	DirectChatPrefix = "direct_"
	GroupChatPrefix  = "group_"
)

const (
	// OfflineMemberName 离线成员在群成员快照中的占位显示名
	OfflineMemberName = "Unknown"
)
