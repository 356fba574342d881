package handler

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/pkg/consts"
	"SmartChat/internal/pkg/security"
	"SmartChat/internal/service"
	"context"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// validate 入站帧负载校验，复用 gin 的 binding 标签
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	return v
}

type WsHandler struct {
	presence service.PresenceService
	chat     service.ChatService
	group    service.GroupService
	signer   *security.TokenSigner
}

func NewWsHandler(presence service.PresenceService, chat service.ChatService, group service.GroupService, signer *security.TokenSigner) *WsHandler {
	return &WsHandler{presence: presence, chat: chat, group: group, signer: signer}
}

// Connect Websocket 握手入口
// 身份由查询参数自报；携带有效 token 时以 token 身份为准 (可插拔认证钩子)
func (s *WsHandler) Connect(c *gin.Context) {
	userID := c.Query("userId")
	username := c.Query("username")

	if token := c.Query("token"); token != "" {
		claims, err := s.signer.Validate(token)
		if err != nil {
			log.Warn("WS 鉴权失败", "err", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		userID = claims.UserID
		username = claims.Username
	}

	if userID == "" || username == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and username are required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WS 协议升级失败", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	client := newWSClient(conn)
	s.presence.Connect(userID, username, client)
	defer s.presence.Disconnect(client.ID())

	// 上线即推送群组快照与未读摘要
	if err := client.Emit(consts.EventGroupsListUpdated, s.group.Snapshot()); err != nil {
		log.Error("WS 推送群组快照失败", "userID", userID, "err", err)
		return
	}
	if err := s.chat.NotifyUnread(context.Background(), userID); err != nil {
		log.Error("未读统计失败", "userID", userID, "err", err)
	}

	log.Info("用户 WS 连接已建立", "userID", userID, "username", username)

	// 读循环：一条连接上的事件严格按到达顺序处理
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			log.Info("用户 WS 连接已断开", "userID", userID, "err", err)
			return
		}

		var frame dto.InboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			s.emitError(client, "", service.ErrParamInvalid)
			continue
		}
		s.dispatch(client, userID, username, &frame)
	}
}

// dispatch 按事件名路由到各服务；业务错误以 message-error 回送本连接，绝不中断进程
func (s *WsHandler) dispatch(client *wsClient, userID, username string, frame *dto.InboundFrame) {
	ctx := context.Background()
	var err error

	switch frame.Event {
	case consts.EventSendMessage:
		var req dto.SendMessageReq
		if err = s.bind(frame.Data, &req); err == nil {
			// 一条连接对应一个身份，发送者字段以会话为准
			req.FromUserID = userID
			req.FromUsername = username
			err = s.chat.SendDirectMessage(ctx, &req)
		}

	case consts.EventTyping, consts.EventStopTyping:
		var req dto.TypingReq
		if err = s.bind(frame.Data, &req); err == nil {
			s.chat.ForwardTyping(userID, req.ToUserID, frame.Event == consts.EventStopTyping)
		}

	case consts.EventLoadDirectMessages:
		var req dto.LoadDirectMessagesReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.chat.LoadDirectMessages(ctx, userID, req.OtherUserID)
		}

	case consts.EventCreateGroup:
		var req dto.CreateGroupReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.CreateGroup(ctx, userID, username, &req)
		}

	case consts.EventSendGroupMessage:
		var req dto.SendGroupMessageReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.SendGroupMessage(ctx, userID, &req)
		}

	case consts.EventAddGroupMember:
		var req dto.GroupMemberReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.AddMember(ctx, userID, &req)
		}

	case consts.EventRemoveGroupMember:
		var req dto.GroupMemberReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.RemoveMember(ctx, userID, &req)
		}

	case consts.EventDeleteGroup:
		var req dto.GroupIDReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.DeleteGroup(ctx, userID, req.GroupID)
		}

	case consts.EventRequestJoinGroup:
		var req dto.GroupIDReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.RequestJoin(ctx, userID, req.GroupID)
		}

	case consts.EventHandleJoinRequest:
		var req dto.HandleJoinRequestReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.HandleJoinRequest(ctx, userID, &req)
		}

	case consts.EventLoadGroupMessages:
		var req dto.GroupIDReq
		if err = s.bind(frame.Data, &req); err == nil {
			err = s.group.LoadGroupMessages(ctx, userID, req.GroupID)
		}

	default:
		log.Warn("未知的入站事件", "event", frame.Event, "userID", userID)
		err = service.ErrParamInvalid
	}

	if err != nil {
		s.emitError(client, frame.Event, err)
	}
}

func (s *WsHandler) bind(data json.RawMessage, req interface{}) error {
	if err := json.Unmarshal(data, req); err != nil {
		return service.ErrParamInvalid
	}
	if err := validate.Struct(req); err != nil {
		return service.ErrParamInvalid
	}
	return nil
}

func (s *WsHandler) emitError(client *wsClient, eventContext string, err error) {
	if _, ok := service.ErrorMap[err]; !ok {
		// 非业务错误只回传通用提示，细节留在服务端日志
		log.Error("WS 事件处理失败", "event", eventContext, "err", err)
		err = service.UnExpectedError
	}
	if emitErr := client.Emit(consts.EventMessageError, dto.MessageErrorDTO{
		Error:   err.Error(),
		Context: eventContext,
	}); emitErr != nil {
		log.Warn("WS 错误回送失败", "event", eventContext, "err", emitErr)
	}
}
