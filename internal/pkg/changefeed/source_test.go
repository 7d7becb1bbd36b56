package changefeed

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const testChannel = "im:changes:messages"

func TestCheckSubscribeAck(t *testing.T) {
	tests := []struct {
		name    string
		reply   interface{}
		wantErr bool
	}{
		{"subscribe", &redis.Subscription{Kind: "subscribe", Channel: testChannel, Count: 1}, false},
		{"other channel", &redis.Subscription{Kind: "subscribe", Channel: "im:changes:other", Count: 1}, true},
		{"unsubscribe", &redis.Subscription{Kind: "unsubscribe", Channel: testChannel}, true},
		{"message first", &redis.Message{Channel: testChannel, Payload: "{}"}, true},
		{"pong", &redis.Pong{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSubscribeAck(testChannel, tt.reply)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkSubscribeAck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func recvEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case evt, ok := <-events:
		if !ok {
			t.Fatal("events closed, want an event")
		}
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func TestPumpFiltersAndDelivers(t *testing.T) {
	sub := newRedisSubscription(TableMessages, testChannel, nil)
	feed := make(chan *redis.Message, 8)
	go sub.pump(feed)

	feed <- &redis.Message{Channel: testChannel, Payload: `not json`}
	feed <- &redis.Message{Channel: testChannel, Payload: `{"type":"INSERT","table":"messages","new":{"id":"m0"}}`}
	feed <- &redis.Message{Channel: testChannel, Payload: `{"type":"DELETE","table":"messages","new":{"id":"m0"}}`}
	feed <- &redis.Message{Channel: testChannel, Payload: `{"type":"INSERT","table":"announcements","new":{"id":"a1","conversation_id":"c1","sender_id":"u2","is_read":0}}`}
	feed <- &redis.Message{Channel: testChannel, Payload: `{"type":"INSERT","table":"messages","new":{"id":"m1","conversation_id":"c1","sender_id":"u2","is_read":0}}`}

	evt := recvEvent(t, sub.Events())
	ins, ok := evt.(InsertEvent)
	if !ok {
		t.Fatalf("event type = %T, want InsertEvent", evt)
	}
	if ins.New.ID != "m1" {
		t.Errorf("first delivered event id = %q, want m1", ins.New.ID)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("unexpected event after Close()")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after Close()")
	}
}

func TestPumpStopsWhenTransportCloses(t *testing.T) {
	sub := newRedisSubscription(TableMessages, testChannel, nil)
	feed := make(chan *redis.Message)
	go sub.pump(feed)
	close(feed)

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("unexpected event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after transport closed")
	}
	if err := sub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestSubscribeUnknownTable(t *testing.T) {
	src := NewRedisSource(nil, map[string]string{TableMessages: testChannel})
	if _, err := src.Subscribe(context.Background(), "announcements"); err == nil {
		t.Error("Subscribe() on a table without channel should fail")
	}
}

// 需要本地 Redis，未启动时跳过
func TestRedisSourceRoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}

	channel := "test:changes:" + time.Now().Format("150405.000000000")
	channels := map[string]string{TableMessages: channel}
	sub, err := NewRedisSource(rdb, channels).Subscribe(ctx, TableMessages)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err = sub.Ready(ctx); err != nil {
		t.Fatalf("Ready() error = %v", err)
	}

	pub := NewRedisPublisher(rdb, channels)
	env := &Envelope{Type: TypeInsert, Table: TableMessages, New: map[string]any{
		"id": "m1", "conversation_id": "c1", "sender_id": "u2", "is_read": "0",
	}}
	if err = pub.Publish(ctx, env); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	evt := recvEvent(t, sub.Events())
	if ins, ok := evt.(InsertEvent); !ok || ins.New.ID != "m1" {
		t.Errorf("received %+v, want insert m1", evt)
	}

	if err = sub.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("unexpected event after Close()")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after Close()")
	}
}
