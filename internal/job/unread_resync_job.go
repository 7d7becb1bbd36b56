package job

import (
	"Marketplace/internal/pkg/logger"
	"Marketplace/internal/service"
	"context"
	"errors"
	log "log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	resyncConcurrency = 8
	resyncTimeout     = 30 * time.Second
)

// UnreadResyncJob 定时对所有在线会话做全量校准，修正实时通道漏掉或重复的事件
type UnreadResyncJob struct {
	sessions service.SessionManager
}

func NewUnreadResyncJob(sessions service.SessionManager) *UnreadResyncJob {
	return &UnreadResyncJob{sessions: sessions}
}

func (s *UnreadResyncJob) Run() {
	ctx := logger.WithTraceID(context.Background(), "cron-"+uuid.NewString())
	ctx, cancel := context.WithTimeout(ctx, resyncTimeout)
	defer cancel()

	sessions := s.sessions.Sessions()
	if len(sessions) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(resyncConcurrency)
	failed := make(chan string, len(sessions))
	for _, n := range sessions {
		n := n
		g.Go(func() error {
			err := n.Refetch(ctx)
			if err != nil && !errors.Is(err, service.ErrSessionClosed) {
				log.WarnContext(ctx, "unread resync failed", "userID", n.UserID(), "err", err)
				failed <- n.UserID()
			}
			return nil
		})
	}
	_ = g.Wait()
	close(failed)

	log.InfoContext(ctx, "unread resync job finished", "sessions", len(sessions), "failed", len(failed))
}
