package changefeed

import (
	"errors"
	"testing"
)

func TestDecodeInsert(t *testing.T) {
	payload := `{"type":"INSERT","table":"messages","new":{"id":"m1","conversation_id":"c1","sender_id":"u2","content":"hi","is_read":"0","created_at":"2026-01-02 03:04:05"}}`
	evt, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ins, ok := evt.(InsertEvent)
	if !ok {
		t.Fatalf("event type = %T, want InsertEvent", evt)
	}
	if ins.Table() != TableMessages {
		t.Errorf("table = %q, want messages", ins.Table())
	}
	if ins.New.ID != "m1" || ins.New.ConversationID != "c1" || ins.New.SenderID != "u2" {
		t.Errorf("new = %+v", ins.New)
	}
	if ins.New.IsRead {
		t.Error("is_read = true, want false")
	}
	if ins.New.Content != "hi" {
		t.Errorf("content = %q, want hi", ins.New.Content)
	}
	if ins.New.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}
}

func TestDecodeUpdate(t *testing.T) {
	payload := `{"type":"update","table":"messages",
		"old":{"id":"m1","conversation_id":"c1","sender_id":"u2","is_read":false},
		"new":{"id":"m1","conversation_id":"c1","sender_id":"u2","is_read":true}}`
	evt, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	upd, ok := evt.(UpdateEvent)
	if !ok {
		t.Fatalf("event type = %T, want UpdateEvent", evt)
	}
	if upd.Old.IsRead || !upd.New.IsRead {
		t.Errorf("old.is_read = %v, new.is_read = %v, want false/true", upd.Old.IsRead, upd.New.IsRead)
	}
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"delete", `{"type":"DELETE","table":"messages","new":{"id":"m1"}}`, ErrUnsupportedType},
		{"missing table", `{"type":"INSERT","new":{"id":"m1","conversation_id":"c1","sender_id":"u","is_read":"0"}}`, ErrMissingField},
		{"missing sender", `{"type":"INSERT","table":"messages","new":{"id":"m1","conversation_id":"c1","is_read":"0"}}`, ErrMissingField},
		{"missing is_read", `{"type":"INSERT","table":"messages","new":{"id":"m1","conversation_id":"c1","sender_id":"u"}}`, ErrMissingField},
		{"missing new", `{"type":"INSERT","table":"messages"}`, ErrMissingField},
		{"update without old", `{"type":"UPDATE","table":"messages","new":{"id":"m1","conversation_id":"c1","sender_id":"u","is_read":"1"}}`, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("Decode() should fail on malformed json")
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{"1", true}, {"0", false}, {"true", true}, {"false", false},
		{true, true}, {false, false}, {float64(1), true}, {float64(0), false},
	}
	for _, tt := range tests {
		got, err := toBool(tt.in)
		if err != nil {
			t.Errorf("toBool(%v) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("toBool(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := toBool([]int{1}); err == nil {
		t.Error("toBool(slice) should fail")
	}
}
