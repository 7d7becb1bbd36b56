package repository

import (
	"Marketplace/internal/model"
	"context"

	"gorm.io/gorm"
)

// UnreadRow 未读消息投影，只取计数需要的列
type UnreadRow struct {
	ID             string
	ConversationID string
}

type MessageRepo interface {
	ListUnread(ctx context.Context, userID string, convIDs []string) ([]UnreadRow, error)
	MarkConversationRead(ctx context.Context, convID, userID string) (int64, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepo(db *gorm.DB) MessageRepo {
	return &messageRepoImpl{db: db}
}

// ListUnread 指定会话内发给该用户且未读的消息
func (s *messageRepoImpl) ListUnread(ctx context.Context, userID string, convIDs []string) ([]UnreadRow, error) {
	if len(convIDs) == 0 {
		return nil, nil
	}
	var rows []UnreadRow
	err := s.db.WithContext(ctx).Model(&model.Message{}).
		Select("id", "conversation_id").
		Where("conversation_id IN ? AND sender_id <> ? AND is_read = ?", convIDs, userID, false).
		Find(&rows).Error
	return rows, err
}

// MarkConversationRead 批量已读：对方发来且未读的消息全部置为已读
func (s *messageRepoImpl) MarkConversationRead(ctx context.Context, convID, userID string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", convID, userID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
