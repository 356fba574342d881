package model

import "time"

// Session 一条在线连接的会话记录
// userId 由客户端在握手时自报，服务端不保证唯一性（详见 PresenceService）
type Session struct {
	UserID      string    `json:"userId"`
	Username    string    `json:"username"`
	ConnectedAt time.Time `json:"connectedAt"`
}
