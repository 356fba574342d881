package handler

import (
	"SmartChat/internal/api/dto"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// wsClient 一条 Websocket 连接的服务端句柄，实现 service.Conn
// gorilla/websocket 不允许并发写，Emit 通过互斥锁串行化
type wsClient struct {
	id   string
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSClient(conn *websocket.Conn) *wsClient {
	return &wsClient{id: uuid.NewString(), conn: conn}
}

func (s *wsClient) ID() string {
	return s.id
}

func (s *wsClient) Emit(event string, data interface{}) error {
	payload, err := json.Marshal(dto.Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}
