package model

import "time"

// GroupMember 群成员，Username 为加入时刻的显示名快照
type GroupMember struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Group 群组
// 不变量：Admin 始终是 Members 中唯一 IsAdmin=true 的成员，且不可被移除
type Group struct {
	GroupID   string        `json:"groupId"`
	Name      string        `json:"name"`
	Admin     GroupMember   `json:"admin"`
	Members   []GroupMember `json:"members"`
	CreatedAt time.Time     `json:"createdAt"`
}

// IsMember 判断用户是否在成员列表中
func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// JoinRequest 待审批的加群请求，按 (GroupID, UserID) 去重
// 仅存在于内存中，进程重启即丢失
type JoinRequest struct {
	GroupID     string    `json:"groupId"`
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	RequestedAt time.Time `json:"requestedAt"`
}
