package service

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/model"
	"SmartChat/internal/pkg/consts"
	"SmartChat/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"time"
)

// ChatService 单聊消息路由与未读统计
type ChatService interface {
	// SendDirectMessage 无条件落盘后按收件人在线状态分流：
	// 在线即时投递并以 delivered 回执发送者，离线以 sent 回执，离线不是错误
	SendDirectMessage(ctx context.Context, req *dto.SendMessageReq) error
	// LoadDirectMessages 返回完整历史，并触发送达确认回扫：
	// 请求者作为收件人时，对方发出的 sent 消息被改写为 delivered，
	// 若对方仍在线则向其推送 messages-delivered
	LoadDirectMessages(ctx context.Context, userID, otherUserID string) error
	// ForwardTyping 输入状态透传，不落盘、不缓冲，对方离线即丢弃
	ForwardTyping(fromUserID, toUserID string, stop bool)
	// NotifyUnread 重连时统计各会话中对方在本人离线后发出的消息，
	// 推送一条汇总通知，随后刷新 last-seen
	NotifyUnread(ctx context.Context, userID string) error
	DeleteDirectChat(ctx context.Context, userID, otherUserID string) error
}

type chatServiceImpl struct {
	chatRepo repository.ChatRepo
	presence PresenceService
}

func NewChatService(chatRepo repository.ChatRepo, presence PresenceService) ChatService {
	return &chatServiceImpl{chatRepo: chatRepo, presence: presence}
}

func (s *chatServiceImpl) SendDirectMessage(ctx context.Context, req *dto.SendMessageReq) error {
	messageID := req.MessageID
	if messageID == "" {
		messageID = fmt.Sprintf("%s_%d", req.FromUserID, time.Now().UnixMilli())
	}

	// 投递状态在落盘时即按在线状态定格
	_, online := s.presence.Resolve(req.ToUserID)
	status := consts.StatusSent
	if online {
		status = consts.StatusDelivered
	}

	msg := &model.DirectMessage{
		MessageID:    messageID,
		FromUserID:   req.FromUserID,
		FromUsername: req.FromUsername,
		Message:      req.Message,
		Timestamp:    time.Now().UTC().Format(time.RFC3339Nano),
		Status:       status,
	}

	if err := s.chatRepo.SaveDirectMessage(ctx, req.FromUserID, req.ToUserID, msg); err != nil {
		return fmt.Errorf("persist direct message: %w", err)
	}

	ack := dto.MessageAckDTO{MessageID: messageID, ToUserID: req.ToUserID, Status: status}
	if online {
		s.presence.EmitTo(req.ToUserID, consts.EventReceiveMessage, msg)
		s.presence.EmitTo(req.FromUserID, consts.EventMessageDelivered, ack)
	} else {
		s.presence.EmitTo(req.FromUserID, consts.EventMessageSent, ack)
	}
	return nil
}

func (s *chatServiceImpl) LoadDirectMessages(ctx context.Context, userID, otherUserID string) error {
	// 先回扫送达状态，请求者拿到的历史即为最新状态
	deliveredIDs, err := s.chatRepo.MarkDirectDelivered(ctx, userID, otherUserID)
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}

	messages, err := s.chatRepo.LoadDirectMessages(ctx, userID, otherUserID)
	if err != nil {
		return fmt.Errorf("load direct messages: %w", err)
	}

	s.presence.EmitTo(userID, consts.EventDirectMessages, dto.DirectMessagesDTO{
		OtherUserID: otherUserID,
		Messages:    messages,
	})

	// 异步送达确认：原发送者若仍在线，告知其具体哪些消息已送达
	if len(deliveredIDs) > 0 {
		s.presence.EmitTo(otherUserID, consts.EventMessagesDelivered, dto.MessagesDeliveredDTO{
			ToUserID:   userID,
			MessageIDs: deliveredIDs,
		})
	}
	return nil
}

func (s *chatServiceImpl) ForwardTyping(fromUserID, toUserID string, stop bool) {
	event := consts.EventUserTyping
	if stop {
		event = consts.EventUserStopTyping
	}
	username, _ := s.presence.Username(fromUserID)
	s.presence.EmitTo(toUserID, event, dto.TypingDTO{FromUserID: fromUserID, FromUsername: username})
}

func (s *chatServiceImpl) NotifyUnread(ctx context.Context, userID string) error {
	partners, err := s.chatRepo.ListDirectPartners(ctx, userID)
	if err != nil {
		return fmt.Errorf("list partners: %w", err)
	}

	// 进程重启后 last-seen 为空，此时对方发出的全部消息都计为未读
	lastSeen, _ := s.presence.LastSeen(userID)

	var summary []dto.UnreadConversationDTO
	total := 0
	for _, partner := range partners {
		messages, err := s.chatRepo.LoadDirectMessages(ctx, userID, partner)
		if err != nil {
			log.Error("Failed to load conversation for unread check", "userID", userID, "partner", partner, "err", err)
			continue
		}

		count := 0
		var last *model.DirectMessage
		for _, m := range messages {
			if m.FromUserID != partner {
				continue
			}
			ts, err := time.Parse(time.RFC3339Nano, m.Timestamp)
			if err != nil || !ts.After(lastSeen) {
				continue
			}
			count++
			last = m
		}
		if count == 0 {
			continue
		}

		username, ok := s.presence.Username(partner)
		if !ok {
			username = last.FromUsername
		}
		summary = append(summary, dto.UnreadConversationDTO{
			FromUserID:   partner,
			FromUsername: username,
			Count:        count,
			LastMessage:  last,
		})
		total += count
	}

	if total > 0 {
		s.presence.EmitTo(userID, consts.EventUnreadNotification, dto.UnreadNotificationDTO{
			TotalCount:    total,
			Conversations: summary,
		})
	}
	s.presence.RefreshLastSeen(userID)
	return nil
}

func (s *chatServiceImpl) DeleteDirectChat(ctx context.Context, userID, otherUserID string) error {
	return s.chatRepo.DeleteDirectChat(ctx, userID, otherUserID)
}
