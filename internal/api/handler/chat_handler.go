package handler

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/pkg/response"
	"SmartChat/internal/pkg/security"
	"SmartChat/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler 核心之外的薄 HTTP 接口：运行状态、令牌签发、会话清理
type ChatHandler struct {
	presence service.PresenceService
	chat     service.ChatService
	group    service.GroupService
	signer   *security.TokenSigner
}

func NewChatHandler(presence service.PresenceService, chat service.ChatService, group service.GroupService, signer *security.TokenSigner) *ChatHandler {
	return &ChatHandler{presence: presence, chat: chat, group: group, signer: signer}
}

// Stats 运行状态概览
func (s *ChatHandler) Stats(c *gin.Context) {
	groups, pending := s.group.Stats()
	response.Success(c, dto.StatsDTO{
		OnlineUsers:         s.presence.OnlineCount(),
		Groups:              groups,
		PendingJoinRequests: pending,
	})
}

// IssueToken 为自报身份签发连接令牌
// 签发本身不做认证，仅把握手身份固定下来，真实登录流程可在此之前接入
func (s *ChatHandler) IssueToken(c *gin.Context) {
	var req dto.TokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	token, err := s.signer.Generate(req.UserID, req.Username)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.TokenDTO{Token: token})
}

// DeleteDirectChat 删除与指定用户的单聊历史文件，幂等
func (s *ChatHandler) DeleteDirectChat(c *gin.Context) {
	userID := c.GetString("userId")
	otherUserID := c.Param("otherUserId")
	if userID == "" || otherUserID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	if err := s.chat.DeleteDirectChat(c.Request.Context(), userID, otherUserID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
