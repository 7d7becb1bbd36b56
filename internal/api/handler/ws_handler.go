package handler

import (
	"Marketplace/internal/api/dto"
	"Marketplace/internal/pkg/consts"
	"Marketplace/internal/pkg/unread"
	"Marketplace/internal/service"
	"context"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 90 * time.Second
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	// Origin 已由 CORSMiddleware 校验
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WsHandler struct {
	sessions service.SessionManager
}

func NewWsHandler(sessions service.SessionManager) *WsHandler {
	return &WsHandler{sessions: sessions}
}

// Connect 建立实时会话：未读快照、新消息提醒通过该连接下发
func (s *WsHandler) Connect(c *gin.Context) {
	userID := c.GetString(consts.UserIDKey)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "WS 协议升级失败", "err", err)
		return
	}

	client := newWsClient(userID, conn)
	go client.writePump()

	n, err := s.sessions.Start(c.Request.Context(), userID, client)
	if err != nil {
		log.ErrorContext(c.Request.Context(), "unread session start failed", "userID", userID, "err", err)
		client.SessionClosed()
		return
	}
	log.InfoContext(c.Request.Context(), "用户 WS 连接已建立", "userID", userID, "session", n.ID())

	client.readPump()
	s.sessions.Stop(n)
	log.InfoContext(c.Request.Context(), "用户 WS 连接已断开", "userID", userID)
}

// wsClient 单条连接；同时作为会话的监听方与提醒展示端
type wsClient struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newWsClient(userID string, conn *websocket.Conn) *wsClient {
	return &wsClient{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		closed: make(chan struct{}),
	}
}

func (c *wsClient) UnreadChanged(state unread.State) {
	c.push(consts.WsOpUnreadSnapshot, state)
}

func (c *wsClient) Notify(_ context.Context, n service.Notification) {
	c.push(consts.WsOpMessageNotify, dto.NotifyDTO{
		ConversationID: n.ConversationID,
		Subject:        n.SubjectText,
		CreatedAt:      n.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (c *wsClient) SessionClosed() {
	c.push(consts.WsOpSessionClosed, nil)
	c.closeOnce.Do(func() { close(c.closed) })
}

// push 不阻塞会话：缓冲满时丢弃，客户端可以主动 refetch
func (c *wsClient) push(op string, data interface{}) {
	select {
	case <-c.closed:
		return
	default:
	}
	payload, err := json.Marshal(dto.WsMessage{Op: op, Data: data})
	if err != nil {
		log.Error("WS 消息序列化失败", "userID", c.userID, "op", op, "err", err)
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Warn("WS 发送缓冲已满，丢弃消息", "userID", c.userID, "op", op)
	}
}

func (c *wsClient) writePump() {
	defer func() {
		c.closeOnce.Do(func() { close(c.closed) })
		_ = c.conn.Close()
	}()
	for {
		select {
		case payload := <-c.send:
			if !c.write(payload) {
				return
			}
		case <-c.closed:
			// 把关闭前排队的消息发完
			for {
				select {
				case payload := <-c.send:
					if !c.write(payload) {
						return
					}
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
			}
		}
	}
}

func (c *wsClient) write(payload []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warn("WS 推送失败", "userID", c.userID, "err", err)
		return false
	}
	return true
}

// readPump 只处理心跳；返回即表示连接已断开
func (c *wsClient) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WS 异常断开", "userID", c.userID, "err", err)
			}
			return
		}
		var msg dto.WsMessage
		if err = json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Op == consts.WsOpHeartbeat {
			_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
			c.push(consts.WsOpHeartbeatAck, nil)
		}
	}
}
