package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message 会话内的一条消息，is_read 只会由接收方标记为已读
type Message struct {
	ID             string    `gorm:"primaryKey;type:char(36)" json:"id"`
	ConversationID string    `gorm:"type:char(36);not null;index:idx_conv_read" json:"conversation_id"`
	SenderID       string    `gorm:"type:char(36);not null;index" json:"sender_id"`
	Content        string    `gorm:"type:text" json:"content"`
	IsRead         bool      `gorm:"type:tinyint(1);not null;default:0;index:idx_conv_read" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string { return "messages" }

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
