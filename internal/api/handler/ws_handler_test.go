package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Marketplace/internal/api/dto"
	"Marketplace/internal/model"
	"Marketplace/internal/pkg/changefeed"
	"Marketplace/internal/pkg/consts"
	"Marketplace/internal/pkg/unread"
	"Marketplace/internal/repository"
	"Marketplace/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

type stubCounter struct{}

func (stubCounter) FullResync(context.Context, string) (unread.State, error) {
	return unread.FromCounts(map[string]int{"c1": 2}), nil
}

type stubMessages struct{}

func (stubMessages) ListUnread(context.Context, string, []string) ([]repository.UnreadRow, error) {
	return nil, nil
}

func (stubMessages) MarkConversationRead(context.Context, string, string) (int64, error) {
	return 0, nil
}

type stubLookup struct{}

func (stubLookup) Lookup(_ context.Context, convID string) (*service.ConversationInfo, error) {
	return &service.ConversationInfo{ID: convID, BuyerID: "u1", SellerID: "u2", Subject: "自行车"}, nil
}

// stubSource 订阅确认由测试控制
type stubSource struct {
	events chan changefeed.Event
}

func (s *stubSource) Subscribe(context.Context, string) (changefeed.Subscription, error) {
	return &stubSub{events: s.events}, nil
}

type stubSub struct {
	events chan changefeed.Event
}

func (s *stubSub) Ready(context.Context) error     { return nil }
func (s *stubSub) Events() <-chan changefeed.Event { return s.events }
func (s *stubSub) Close() error                    { return nil }

func readOp(t *testing.T, conn *websocket.Conn) dto.WsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg dto.WsMessage
	if err = json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
	return msg
}

// readUntil 跳过其余消息直到目标 op
func readUntil(t *testing.T, conn *websocket.Conn, op string) dto.WsMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		if msg := readOp(t, conn); msg.Op == op {
			return msg
		}
	}
	t.Fatalf("op %s not received", op)
	return dto.WsMessage{}
}

func TestWsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	source := &stubSource{events: make(chan changefeed.Event, 4)}
	sessions := service.NewSessionManager(service.NotifierDeps{
		Counter:  stubCounter{},
		Messages: stubMessages{},
		Lookup:   stubLookup{},
		Source:   source,
	})
	defer sessions.StopAll()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set(consts.UserIDKey, "u1")
		c.Next()
	}, NewWsHandler(sessions).Connect)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	snap := readOp(t, conn)
	if snap.Op != consts.WsOpUnreadSnapshot {
		t.Fatalf("first op = %s, want %s", snap.Op, consts.WsOpUnreadSnapshot)
	}
	if data, _ := snap.Data.(map[string]interface{}); data["total"] != float64(2) {
		t.Errorf("snapshot = %v, want total 2", snap.Data)
	}

	source.events <- changefeed.InsertEvent{
		TableName: changefeed.TableMessages,
		New:       &model.Message{ID: "m9", ConversationID: "c1", SenderID: "u2"},
	}
	note := readUntil(t, conn, consts.WsOpMessageNotify)
	if data, _ := note.Data.(map[string]interface{}); data["subject"] != "自行车" {
		t.Errorf("notify = %v", note.Data)
	}

	// 服务端关闭会话（例如登出）时客户端收到通知
	if n, ok := sessions.Get("u1"); !ok || n.UnreadTotal() != 3 {
		t.Fatalf("live session missing or total wrong")
	}
	sessions.StopUser("u1")
	readUntil(t, conn, consts.WsOpSessionClosed)
}
