package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Conversation 买家与卖家围绕一条公告的会话
type Conversation struct {
	ID             string    `gorm:"primaryKey;type:char(36)" json:"id"`
	BuyerID        string    `gorm:"type:char(36);not null;index" json:"buyer_id"`
	SellerID       string    `gorm:"type:char(36);not null;index" json:"seller_id"`
	AnnouncementID string    `gorm:"type:char(36);not null;index" json:"announcement_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Announcement Announcement `gorm:"foreignKey:AnnouncementID;references:ID" json:"announcement"`
}

func (Conversation) TableName() string { return "conversations" }

func (c *Conversation) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
