package service

import (
	"SmartChat/internal/api/dto"
	"SmartChat/internal/model"
	"SmartChat/internal/pkg/consts"
	log "log/slog"
	"sync"
	"time"
)

// Conn 一条可写的客户端连接
// 由传输层实现 (Websocket)，服务层只关心投递能力
type Conn interface {
	ID() string
	Emit(event string, data interface{}) error
}

// PresenceService 在线状态登记表
// userId 由客户端自报、未经认证；同一 userId 重连时后者覆盖前者 (last-writer-wins)。
// 所有状态均为进程内存态，重启即清空，客户端需重新注册。
type PresenceService interface {
	Connect(userID, username string, conn Conn) *model.Session
	Disconnect(connID string)
	Resolve(userID string) (Conn, bool)
	Username(userID string) (string, bool)
	OnlineUsers() []dto.OnlineUserDTO
	OnlineCount() int
	Broadcast(event string, data interface{})
	EmitTo(userID string, event string, data interface{}) bool
	// LastSeen 用户最近一次断开的时间，用于重连时的未读统计
	LastSeen(userID string) (time.Time, bool)
	RefreshLastSeen(userID string)
}

type session struct {
	model.Session
	conn Conn
}

type presenceServiceImpl struct {
	mu       sync.RWMutex
	byConn   map[string]*session
	byUser   map[string]*session
	lastSeen map[string]time.Time
}

func NewPresenceService() PresenceService {
	return &presenceServiceImpl{
		byConn:   map[string]*session{},
		byUser:   map[string]*session{},
		lastSeen: map[string]time.Time{},
	}
}

// Connect 注册会话并向全体在线连接广播最新用户列表
func (s *presenceServiceImpl) Connect(userID, username string, conn Conn) *model.Session {
	s.mu.Lock()
	sess := &session{
		Session: model.Session{
			UserID:      userID,
			Username:    username,
			ConnectedAt: time.Now(),
		},
		conn: conn,
	}
	if old, ok := s.byUser[userID]; ok && old.conn.ID() != conn.ID() {
		log.Warn("User reconnected with a new connection, replacing the old one",
			"userID", userID, "oldConn", old.conn.ID(), "newConn", conn.ID())
	}
	s.byConn[conn.ID()] = sess
	s.byUser[userID] = sess
	s.mu.Unlock()

	log.Info("User connected", "userID", userID, "username", username, "conn", conn.ID())
	s.broadcastUserList()
	return &sess.Session
}

// Disconnect 注销会话，记录离线时间并广播最新用户列表
func (s *presenceServiceImpl) Disconnect(connID string) {
	s.mu.Lock()
	sess, ok := s.byConn[connID]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.byConn, connID)
	// 重连覆盖后旧连接断开时不应摘除新会话
	if cur, ok := s.byUser[sess.UserID]; ok && cur.conn.ID() == connID {
		delete(s.byUser, sess.UserID)
		s.lastSeen[sess.UserID] = time.Now()
	}
	s.mu.Unlock()

	log.Info("User disconnected", "userID", sess.UserID, "conn", connID)
	s.broadcastUserList()
}

func (s *presenceServiceImpl) Resolve(userID string) (Conn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return nil, false
	}
	return sess.conn, true
}

func (s *presenceServiceImpl) Username(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byUser[userID]
	if !ok {
		return "", false
	}
	return sess.Username, true
}

func (s *presenceServiceImpl) OnlineUsers() []dto.OnlineUserDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]dto.OnlineUserDTO, 0, len(s.byUser))
	for _, sess := range s.byUser {
		users = append(users, dto.OnlineUserDTO{UserID: sess.UserID, Username: sess.Username})
	}
	return users
}

func (s *presenceServiceImpl) OnlineCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser)
}

// Broadcast 向全部在线连接投递同一事件
func (s *presenceServiceImpl) Broadcast(event string, data interface{}) {
	s.mu.RLock()
	conns := make([]Conn, 0, len(s.byConn))
	for _, sess := range s.byConn {
		conns = append(conns, sess.conn)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		if err := c.Emit(event, data); err != nil {
			log.Warn("Broadcast emit failed", "conn", c.ID(), "event", event, "err", err)
		}
	}
}

// EmitTo 向指定用户的活动连接投递事件，用户离线时返回 false
func (s *presenceServiceImpl) EmitTo(userID string, event string, data interface{}) bool {
	conn, ok := s.Resolve(userID)
	if !ok {
		return false
	}
	if err := conn.Emit(event, data); err != nil {
		log.Warn("Emit failed", "userID", userID, "event", event, "err", err)
		return false
	}
	return true
}

func (s *presenceServiceImpl) LastSeen(userID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.lastSeen[userID]
	return t, ok
}

func (s *presenceServiceImpl) RefreshLastSeen(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen[userID] = time.Now()
}

func (s *presenceServiceImpl) broadcastUserList() {
	s.Broadcast(consts.EventUserListUpdated, dto.UserListDTO{Users: s.OnlineUsers()})
}
