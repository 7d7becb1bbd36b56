package repository

import (
	"Marketplace/internal/model"
	"context"

	"gorm.io/gorm"
)

type ConversationRepo interface {
	GetConversation(ctx context.Context, convID string) (*model.Conversation, error)
	ListConversationIDs(ctx context.Context, userID string) ([]string, error)
}

type conversationRepoImpl struct {
	db *gorm.DB
}

func NewConversationRepo(db *gorm.DB) ConversationRepo {
	return &conversationRepoImpl{db: db}
}

// GetConversation 根据会话 ID 获取会话，附带公告标题
func (s *conversationRepoImpl) GetConversation(ctx context.Context, convID string) (*model.Conversation, error) {
	var conv model.Conversation
	err := s.db.WithContext(ctx).
		Preload("Announcement", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title")
		}).
		First(&conv, "id = ?", convID).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversationIDs 用户作为买家或卖家参与的所有会话
func (s *conversationRepoImpl) ListConversationIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Pluck("id", &ids).Error
	return ids, err
}
