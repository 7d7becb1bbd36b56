package service

import (
	"context"
	log "log/slog"
	"sync"
)

// SessionManager 每个用户至多一个活跃的 Notifier
type SessionManager interface {
	// Start 为用户开启新会话，旧会话先被关闭
	Start(ctx context.Context, userID string, listener SessionListener) (*Notifier, error)
	// Stop 关闭指定会话；该会话已被替换时只关闭它本身
	Stop(n *Notifier)
	StopUser(userID string)
	Get(userID string) (*Notifier, bool)
	// Sessions 当前活跃会话的快照
	Sessions() []*Notifier
	StopAll()
}

type sessionManagerImpl struct {
	deps NotifierDeps

	mu       sync.Mutex
	sessions map[string]*Notifier
}

// NewSessionManager deps 中的 Listener 由每个会话单独提供
func NewSessionManager(deps NotifierDeps) SessionManager {
	return &sessionManagerImpl{
		deps:     deps,
		sessions: make(map[string]*Notifier),
	}
}

func (s *sessionManagerImpl) Start(ctx context.Context, userID string, listener SessionListener) (*Notifier, error) {
	if userID == "" {
		return nil, ErrMissingLoginToken
	}

	deps := s.deps
	deps.Listener = listener
	if toast, ok := listener.(NotificationSink); ok {
		// 连接本身也展示提醒，全局展示端（存档）照常投递
		deps.Sink = TeeSink{toast, s.deps.Sink}
	}
	n := NewNotifier(userID, deps)

	s.mu.Lock()
	old := s.sessions[userID]
	s.sessions[userID] = n
	s.mu.Unlock()

	if old != nil {
		log.InfoContext(ctx, "replace unread session", "userID", userID, "old", old.ID(), "new", n.ID())
		old.Stop()
	}

	if err := n.Start(ctx); err != nil {
		s.Stop(n)
		return nil, err
	}
	return n, nil
}

func (s *sessionManagerImpl) Stop(n *Notifier) {
	if n == nil {
		return
	}
	s.mu.Lock()
	if cur, ok := s.sessions[n.UserID()]; ok && cur == n {
		delete(s.sessions, n.UserID())
	}
	s.mu.Unlock()
	n.Stop()
}

func (s *sessionManagerImpl) StopUser(userID string) {
	s.mu.Lock()
	n, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()
	if ok {
		n.Stop()
	}
}

func (s *sessionManagerImpl) Get(userID string) (*Notifier, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.sessions[userID]
	return n, ok
}

func (s *sessionManagerImpl) Sessions() []*Notifier {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*Notifier, 0, len(s.sessions))
	for _, n := range s.sessions {
		all = append(all, n)
	}
	return all
}

// StopAll 进程退出时关闭全部会话
func (s *sessionManagerImpl) StopAll() {
	s.mu.Lock()
	all := make([]*Notifier, 0, len(s.sessions))
	for _, n := range s.sessions {
		all = append(all, n)
	}
	s.sessions = make(map[string]*Notifier)
	s.mu.Unlock()

	for _, n := range all {
		n.Stop()
	}
	log.Info("all unread sessions stopped", "count", len(all))
}
