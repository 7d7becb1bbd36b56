package service

import (
	"Marketplace/internal/pkg/unread"
	"Marketplace/internal/repository"
	"context"
	"fmt"
)

// UnreadCounter 权威的全量未读计数
type UnreadCounter interface {
	FullResync(ctx context.Context, userID string) (unread.State, error)
}

type unreadCounterImpl struct {
	convRepo    repository.ConversationRepo
	messageRepo repository.MessageRepo
}

func NewUnreadCounter(convRepo repository.ConversationRepo, messageRepo repository.MessageRepo) UnreadCounter {
	return &unreadCounterImpl{convRepo: convRepo, messageRepo: messageRepo}
}

// FullResync 会话列表 -> 发给我的未读消息 -> 按会话分组计数。可随时重复调用。
func (s *unreadCounterImpl) FullResync(ctx context.Context, userID string) (unread.State, error) {
	if userID == "" {
		return unread.Empty(), nil
	}

	convIDs, err := s.convRepo.ListConversationIDs(ctx, userID)
	if err != nil {
		return unread.State{}, fmt.Errorf("list conversations: %w", err)
	}
	if len(convIDs) == 0 {
		return unread.Empty(), nil
	}

	rows, err := s.messageRepo.ListUnread(ctx, userID, convIDs)
	if err != nil {
		return unread.State{}, fmt.Errorf("list unread messages: %w", err)
	}

	counts := make(map[string]int, len(convIDs))
	for _, r := range rows {
		counts[r.ConversationID]++
	}
	return unread.FromCounts(counts), nil
}
