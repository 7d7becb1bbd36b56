// Package changefeed 行变更事件：信封格式、边界处的强类型解码、订阅接口。
package changefeed

import (
	"Marketplace/internal/model"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	TypeInsert = "INSERT"
	TypeUpdate = "UPDATE"
	TypeDelete = "DELETE"
)

const TableMessages = "messages"

var (
	ErrUnsupportedType = errors.New("unsupported change type")
	ErrMissingField    = errors.New("missing required field")
)

// Envelope 变更事件在总线上的传输格式，Old 仅 UPDATE 时存在
type Envelope struct {
	Type  string         `json:"type"`
	Table string         `json:"table"`
	Old   map[string]any `json:"old,omitempty"`
	New   map[string]any `json:"new"`
	TS    int64          `json:"ts,omitempty"`
}

// Event 解码后的事件：InsertEvent 或 UpdateEvent
type Event interface {
	Table() string
	isEvent()
}

type InsertEvent struct {
	TableName string
	New       *model.Message
}

type UpdateEvent struct {
	TableName string
	Old       *model.Message
	New       *model.Message
}

func (e InsertEvent) Table() string { return e.TableName }
func (e UpdateEvent) Table() string { return e.TableName }
func (InsertEvent) isEvent()        {}
func (UpdateEvent) isEvent()        {}

// Decode 将总线上的原始负载解码为强类型事件，字段缺失直接拒绝
func Decode(payload []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Wrap(err, "unmarshal change envelope")
	}
	return env.Decode()
}

// Decode 校验并转换信封
func (e *Envelope) Decode() (Event, error) {
	if e.Table == "" {
		return nil, errors.Wrap(ErrMissingField, "table")
	}
	switch strings.ToUpper(e.Type) {
	case TypeInsert:
		msg, err := messageFromRow(e.New)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s insert", e.Table)
		}
		return InsertEvent{TableName: e.Table, New: msg}, nil
	case TypeUpdate:
		newMsg, err := messageFromRow(e.New)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s update new row", e.Table)
		}
		if e.Old == nil {
			return nil, errors.Wrapf(ErrMissingField, "decode %s update: old", e.Table)
		}
		oldMsg, err := messageFromRow(e.Old)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s update old row", e.Table)
		}
		return UpdateEvent{TableName: e.Table, Old: oldMsg, New: newMsg}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedType, "%q", e.Type)
	}
}

func messageFromRow(row map[string]any) (*model.Message, error) {
	if row == nil {
		return nil, errors.Wrap(ErrMissingField, "row")
	}
	msg := &model.Message{}
	var err error
	if msg.ID, err = requiredString(row, "id"); err != nil {
		return nil, err
	}
	if msg.ConversationID, err = requiredString(row, "conversation_id"); err != nil {
		return nil, err
	}
	if msg.SenderID, err = requiredString(row, "sender_id"); err != nil {
		return nil, err
	}
	raw, ok := row["is_read"]
	if !ok || raw == nil {
		return nil, errors.Wrap(ErrMissingField, "is_read")
	}
	if msg.IsRead, err = toBool(raw); err != nil {
		return nil, errors.Wrap(err, "is_read")
	}
	if v, ok := row["content"].(string); ok {
		msg.Content = v
	}
	if v, ok := row["created_at"].(string); ok && v != "" {
		msg.CreatedAt = parseTime(v)
	}
	return msg, nil
}

func requiredString(row map[string]any, key string) (string, error) {
	v, ok := row[key]
	if !ok || v == nil {
		return "", errors.Wrap(ErrMissingField, key)
	}
	s := fmt.Sprint(v)
	if s == "" {
		return "", errors.Wrap(ErrMissingField, key)
	}
	return s, nil
}

// toBool canal 中 tinyint(1) 为 "0"/"1"，也兼容 JSON bool 与数字
func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case float64:
		return b != 0, nil
	case string:
		if n, err := strconv.ParseInt(b, 10, 64); err == nil {
			return n != 0, nil
		}
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("unexpected type %T", v)
	}
}

func parseTime(v string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
