package service

import (
	"Marketplace/internal/api/dto"
	"Marketplace/internal/pkg/mongo"
	"Marketplace/internal/pkg/unread"
	"Marketplace/internal/repository"
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
)

// UnreadService HTTP 侧的未读查询与操作；有活跃会话时走会话，否则直接查库
type UnreadService interface {
	GetUnread(ctx context.Context, userID string) (*dto.UnreadDTO, error)
	MarkAsRead(ctx context.Context, userID, conversationID string) error
	Refetch(ctx context.Context, userID string) (*dto.UnreadDTO, error)
	ListNotifications(ctx context.Context, userID string, page, pageSize int) (*dto.NotificationListDTO, error)
}

type unreadServiceImpl struct {
	sessions SessionManager
	counter  UnreadCounter
	lookup   ConversationLookup
	messages repository.MessageRepo
	archive  mongo.NotificationRepo
}

func NewUnreadService(
	sessions SessionManager,
	counter UnreadCounter,
	lookup ConversationLookup,
	messages repository.MessageRepo,
	archive mongo.NotificationRepo,
) UnreadService {
	return &unreadServiceImpl{
		sessions: sessions,
		counter:  counter,
		lookup:   lookup,
		messages: messages,
		archive:  archive,
	}
}

func (s *unreadServiceImpl) GetUnread(ctx context.Context, userID string) (*dto.UnreadDTO, error) {
	if n, ok := s.sessions.Get(userID); ok {
		return toUnreadDTO(n.Snapshot(), n.IsSubscribed(), n.State()), nil
	}
	state, err := s.counter.FullResync(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUnreadDTO(state, false, StateIdle), nil
}

func (s *unreadServiceImpl) MarkAsRead(ctx context.Context, userID, conversationID string) error {
	if n, ok := s.sessions.Get(userID); ok {
		return n.MarkAsRead(ctx, conversationID)
	}

	// 没有实时会话：只做远端更新
	info, err := s.lookup.Lookup(ctx, conversationID)
	if err != nil {
		return err
	}
	if !info.HasParticipant(userID) {
		return UnauthorizedError
	}
	if _, err = s.messages.MarkConversationRead(ctx, conversationID, userID); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}
	return nil
}

func (s *unreadServiceImpl) Refetch(ctx context.Context, userID string) (*dto.UnreadDTO, error) {
	n, ok := s.sessions.Get(userID)
	if !ok {
		return nil, ErrNoSession
	}
	if err := n.Refetch(ctx); err != nil {
		return nil, err
	}
	return toUnreadDTO(n.Snapshot(), n.IsSubscribed(), n.State()), nil
}

// ListNotifications 提醒存档分页
func (s *unreadServiceImpl) ListNotifications(ctx context.Context, userID string, page, pageSize int) (*dto.NotificationListDTO, error) {
	if s.archive == nil {
		return &dto.NotificationListDTO{List: []*dto.NotificationDTO{}}, nil
	}
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	list, err := s.archive.GetNotificationList(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.archive.CountNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.NotificationDTO, 0, len(list))
	for _, m := range list {
		d := &dto.NotificationDTO{}
		_ = copier.Copy(d, m)
		d.ID = m.ID.Hex()
		d.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)
		res = append(res, d)
	}
	return &dto.NotificationListDTO{List: res, Total: total}, nil
}

func toUnreadDTO(state unread.State, subscribed bool, st NotifierState) *dto.UnreadDTO {
	d := &dto.UnreadDTO{}
	_ = copier.Copy(d, &state)
	if d.ByConversation == nil {
		d.ByConversation = map[string]int{}
	}
	d.Subscribed = subscribed
	d.State = string(st)
	return d
}
