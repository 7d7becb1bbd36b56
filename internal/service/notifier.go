package service

import (
	"Marketplace/internal/pkg/changefeed"
	"Marketplace/internal/pkg/logger"
	"Marketplace/internal/pkg/unread"
	"Marketplace/internal/repository"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const notifyTimeout = 5 * time.Second

// Notification 新消息提醒
type Notification struct {
	ReceiverID     string    `json:"receiver_id"`
	ConversationID string    `json:"conversation_id"`
	SubjectText    string    `json:"subject"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationSink 提醒的展示端，只管投递，不返回结果
type NotificationSink interface {
	Notify(ctx context.Context, n Notification)
}

// SessionListener 未读状态变化与会话关闭的监听方（一般是 websocket 连接）
type SessionListener interface {
	UnreadChanged(state unread.State)
	SessionClosed()
}

// NotifierDeps Notifier 的协作方
type NotifierDeps struct {
	Counter  UnreadCounter
	Messages repository.MessageRepo
	Lookup   ConversationLookup
	Source   changefeed.Source
	Sink     NotificationSink
	Listener SessionListener
}

// Notifier 单个用户会话的未读通知：
// IDLE -> CONNECTING(全量校准 + 打开通道) -> SUBSCRIBED(收到订阅确认) -> CLOSED
type Notifier struct {
	id     string
	userID string
	deps   NotifierDeps
	store  *unread.Store

	// emitMu 保证推送给监听方的快照按时间先后排列
	emitMu sync.Mutex

	mu      sync.Mutex
	life    lifecycle
	stopped bool // 由 Stop 关闭；通道失败导致的 CLOSED 仍允许 Refetch 恢复
	sub     changefeed.Subscription
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewNotifier(userID string, deps NotifierDeps) *Notifier {
	return &Notifier{
		id:     uuid.NewString(),
		userID: userID,
		deps:   deps,
		store:  unread.NewStore(),
		life:   newLifecycle(),
		done:   make(chan struct{}),
	}
}

func (n *Notifier) ID() string     { return n.id }
func (n *Notifier) UserID() string { return n.userID }

// State 当前生命周期状态
func (n *Notifier) State() NotifierState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.life.current
}

// IsSubscribed 只有在收到订阅确认后才为 true
func (n *Notifier) IsSubscribed() bool {
	return n.State() == StateSubscribed
}

// Done 会话事件循环退出后关闭
func (n *Notifier) Done() <-chan struct{} { return n.done }

func (n *Notifier) UnreadTotal() int { return n.store.Total() }

func (n *Notifier) UnreadByConversation() map[string]int { return n.store.ByConversation() }

// Snapshot 当前未读状态副本
func (n *Notifier) Snapshot() unread.State { return n.store.Snapshot() }

// Start 全量校准后打开实时通道。校准失败返回错误；通道打开失败只记日志，
// IsSubscribed 保持 false，本地状态停留在校准结果。
func (n *Notifier) Start(ctx context.Context) error {
	n.mu.Lock()
	if n.userID == "" {
		// 未登录：不订阅，零状态
		_ = n.life.transition(StateClosed)
		n.mu.Unlock()
		n.closeDone()
		return nil
	}
	if err := n.life.transition(StateConnecting); err != nil {
		closed := n.life.current == StateClosed
		n.mu.Unlock()
		if closed {
			return ErrSessionClosed
		}
		return ErrSessionStarted
	}
	n.mu.Unlock()

	ctx = n.withTrace(ctx)
	state, err := n.deps.Counter.FullResync(ctx, n.userID)
	if err != nil {
		n.closeWith(StateConnecting)
		return fmt.Errorf("initial resync: %w", err)
	}
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return nil
	}
	n.store.Replace(state)
	n.mu.Unlock()
	n.emitChange()

	// 通道生命周期跟随会话，而不是发起 Start 的请求
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := n.deps.Source.Subscribe(runCtx, changefeed.TableMessages)
	if err != nil {
		cancel()
		log.WarnContext(ctx, "open change channel failed", "userID", n.userID, "err", err)
		n.closeWith(StateConnecting)
		return nil
	}

	n.mu.Lock()
	if n.life.current != StateConnecting {
		// Start 期间已被 Stop
		n.mu.Unlock()
		cancel()
		_ = sub.Close()
		return nil
	}
	n.sub = sub
	n.cancel = cancel
	n.mu.Unlock()

	go n.run(runCtx, sub)
	return nil
}

// Stop 关闭通道；之后收到的事件全部丢弃。可重复调用。
func (n *Notifier) Stop() {
	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return
	}
	n.stopped = true
	if n.life.current != StateClosed {
		_ = n.life.transition(StateClosed)
	}
	sub, cancel := n.sub, n.cancel
	n.sub, n.cancel = nil, nil
	n.store.Reset()
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		if err := sub.Close(); err != nil {
			log.Warn("close change channel failed", "userID", n.userID, "err", err)
		}
	}
	if sub == nil {
		// 事件循环未在运行
		n.closeDone()
	}
	if n.deps.Listener != nil {
		// 等进行中的推送结束，之后的推送都会看到 stopped
		n.emitMu.Lock()
		n.deps.Listener.SessionClosed()
		n.emitMu.Unlock()
	}
	log.Info("unread session closed", "userID", n.userID, "session", n.id)
}

// MarkAsRead 远端批量标记已读，成功后本地清零该会话；失败时本地状态不变
func (n *Notifier) MarkAsRead(ctx context.Context, conversationID string) error {
	if n.userID == "" {
		return nil
	}
	if conversationID == "" {
		return ErrParamInvalid
	}
	ctx = n.withTrace(ctx)

	info, err := n.deps.Lookup.Lookup(ctx, conversationID)
	if err != nil {
		return err
	}
	if !info.HasParticipant(n.userID) {
		return UnauthorizedError
	}

	if _, err = n.deps.Messages.MarkConversationRead(ctx, conversationID, n.userID); err != nil {
		return fmt.Errorf("mark conversation read: %w", err)
	}

	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return nil
	}
	n.store.Update(func(s unread.State) unread.State {
		return unread.MarkConversationRead(s, conversationID)
	})
	n.mu.Unlock()

	n.emitChange()
	return nil
}

// Refetch 重新全量校准并整体替换本地状态；失败时保留旧状态。
// 通道打开失败后这是唯一的恢复手段。
func (n *Notifier) Refetch(ctx context.Context) error {
	if n.userID == "" {
		return nil
	}
	ctx = n.withTrace(ctx)
	if n.isStopped() {
		return ErrSessionClosed
	}

	state, err := n.deps.Counter.FullResync(ctx, n.userID)
	if err != nil {
		return fmt.Errorf("resync: %w", err)
	}

	n.mu.Lock()
	if n.stopped {
		n.mu.Unlock()
		return ErrSessionClosed
	}
	n.store.Replace(state)
	n.mu.Unlock()

	n.emitChange()
	return nil
}

// run 会话的事件循环：等待订阅确认，然后按投递顺序折叠事件
func (n *Notifier) run(ctx context.Context, sub changefeed.Subscription) {
	defer n.closeDone()

	if err := sub.Ready(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.WarnContext(ctx, "change channel not acknowledged", "userID", n.userID, "err", err)
		}
		n.closeWith(StateConnecting)
		return
	}

	n.mu.Lock()
	if err := n.life.transition(StateSubscribed); err != nil {
		// 确认到达之前已被 Stop
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	log.InfoContext(ctx, "unread session subscribed", "userID", n.userID, "session", n.id)
	n.emitChange()

	events := sub.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				log.WarnContext(ctx, "change channel closed by transport", "userID", n.userID)
				n.closeWith(StateSubscribed)
				return
			}
			n.handleEvent(ctx, evt)
		}
	}
}

func (n *Notifier) handleEvent(ctx context.Context, evt changefeed.Event) {
	var convID string
	switch e := evt.(type) {
	case changefeed.InsertEvent:
		if e.New.SenderID == n.userID {
			return
		}
		convID = e.New.ConversationID
	case changefeed.UpdateEvent:
		if e.Old.IsRead || !e.New.IsRead || e.New.SenderID == n.userID {
			return
		}
		convID = e.New.ConversationID
	default:
		return
	}

	// 通道按表订阅，不属于自己的会话在这里丢弃
	info, err := n.deps.Lookup.Lookup(ctx, convID)
	if err != nil {
		if !errors.Is(err, ErrConversation) {
			log.WarnContext(ctx, "participant check failed", "convID", convID, "err", err)
		}
		return
	}
	if !info.HasParticipant(n.userID) {
		return
	}

	counted := false
	n.mu.Lock()
	if n.life.current != StateSubscribed {
		n.mu.Unlock()
		return
	}
	switch e := evt.(type) {
	case changefeed.InsertEvent:
		n.store.Update(func(s unread.State) unread.State {
			next, ok := unread.ApplyInsert(s, e.New, n.userID)
			counted = ok
			return next
		})
	case changefeed.UpdateEvent:
		n.store.Update(func(s unread.State) unread.State {
			return unread.ApplyUpdate(s, e.Old, e.New, n.userID)
		})
	}
	n.mu.Unlock()

	if counted {
		n.notify(Notification{
			ReceiverID:     n.userID,
			ConversationID: convID,
			SubjectText:    info.Subject,
			CreatedAt:      time.Now(),
		})
	}
	n.emitChange()
}

// notify 异步投递，不阻塞也不影响折叠
func (n *Notifier) notify(note Notification) {
	if n.deps.Sink == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("notification sink panic", "userID", n.userID, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		n.deps.Sink.Notify(ctx, note)
	}()
}

// emitChange 取快照与推送在同一把锁内完成，后推送的快照不会比先推送的旧。
// Listener 的实现必须不阻塞
func (n *Notifier) emitChange() {
	if n.deps.Listener == nil {
		return
	}
	n.emitMu.Lock()
	defer n.emitMu.Unlock()
	if n.isStopped() {
		return
	}
	n.deps.Listener.UnreadChanged(n.store.Snapshot())
}

// closeWith 仅当当前仍处于 from 状态时关闭（通道失败路径）
func (n *Notifier) closeWith(from NotifierState) {
	n.mu.Lock()
	if n.life.current != from {
		n.mu.Unlock()
		return
	}
	_ = n.life.transition(StateClosed)
	sub, cancel := n.sub, n.cancel
	n.sub, n.cancel = nil, nil
	n.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sub != nil {
		_ = sub.Close()
	}
	if from == StateConnecting && sub == nil {
		n.closeDone()
	}
}

func (n *Notifier) isStopped() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stopped
}

func (n *Notifier) closeDone() {
	n.mu.Lock()
	defer n.mu.Unlock()
	select {
	case <-n.done:
	default:
		close(n.done)
	}
}

func (n *Notifier) withTrace(ctx context.Context) context.Context {
	return logger.WithTraceID(ctx, "unread-"+n.id)
}
