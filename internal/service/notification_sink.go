package service

import (
	"Marketplace/internal/pkg/mongo"
	"context"
	log "log/slog"
)

// SinkFunc 函数适配为 NotificationSink
type SinkFunc func(ctx context.Context, n Notification)

func (f SinkFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// TeeSink 依次投递给多个展示端，单个展示端的 panic 不影响其余
type TeeSink []NotificationSink

func (t TeeSink) Notify(ctx context.Context, n Notification) {
	for _, s := range t {
		if s == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.ErrorContext(ctx, "notification sink panic", "receiver", n.ReceiverID, "panic", r)
				}
			}()
			s.Notify(ctx, n)
		}()
	}
}

type archiveSink struct {
	repo mongo.NotificationRepo
}

// NewArchiveSink 提醒写入 MongoDB，失败只记日志
func NewArchiveSink(repo mongo.NotificationRepo) NotificationSink {
	return &archiveSink{repo: repo}
}

func (s *archiveSink) Notify(ctx context.Context, n Notification) {
	err := s.repo.CreateNotification(ctx, &mongo.NotificationModel{
		ReceiverID:     n.ReceiverID,
		ConversationID: n.ConversationID,
		Subject:        n.SubjectText,
		CreatedAt:      n.CreatedAt,
	})
	if err != nil {
		log.WarnContext(ctx, "archive notification failed", "receiver", n.ReceiverID, "convID", n.ConversationID, "err", err)
	}
}
