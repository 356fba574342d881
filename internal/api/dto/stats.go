package dto

// StatsDTO 运行状态概览 (HTTP /api/stats)
type StatsDTO struct {
	OnlineUsers         int `json:"onlineUsers"`
	Groups              int `json:"groups"`
	PendingJoinRequests int `json:"pendingJoinRequests"`
}

// TokenReq 签发连接令牌请求
// 身份仍由调用方自报，此处只是把信任边界显式化
type TokenReq struct {
	UserID   string `json:"userId" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// TokenDTO 令牌应答
type TokenDTO struct {
	Token string `json:"token"`
}
