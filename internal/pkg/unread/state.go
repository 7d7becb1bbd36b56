// Package unread 维护"发给我但我还没读"的消息计数投影。
//
// State 的不变式：Total == sum(ByConversation)，ByConversation 中不存在 <= 0 的值，Total >= 0。
// 下面的折叠函数都返回新的 State，不修改入参，每一个都保持不变式。
package unread

import (
	"Marketplace/internal/model"
)

// State 某个会话(session)的未读状态
type State struct {
	Total          int            `json:"total"`
	ByConversation map[string]int `json:"by_conversation"`
}

// Empty 零状态
func Empty() State {
	return State{ByConversation: map[string]int{}}
}

// FromCounts 由按会话分组的计数构造状态，<= 0 的项被丢弃
func FromCounts(counts map[string]int) State {
	s := Empty()
	for convID, n := range counts {
		if n <= 0 {
			continue
		}
		s.ByConversation[convID] = n
		s.Total += n
	}
	return s
}

// Clone 深拷贝
func (s State) Clone() State {
	c := State{Total: s.Total, ByConversation: make(map[string]int, len(s.ByConversation))}
	for k, v := range s.ByConversation {
		c.ByConversation[k] = v
	}
	return c
}

// Valid 校验不变式
func (s State) Valid() bool {
	if s.Total < 0 {
		return false
	}
	sum := 0
	for _, v := range s.ByConversation {
		if v <= 0 {
			return false
		}
		sum += v
	}
	return sum == s.Total
}

// Equal 比较两个状态
func (s State) Equal(o State) bool {
	if s.Total != o.Total || len(s.ByConversation) != len(o.ByConversation) {
		return false
	}
	for k, v := range s.ByConversation {
		if o.ByConversation[k] != v {
			return false
		}
	}
	return true
}

// ApplyInsert 新消息入库。自己发的消息不计数。
// 第二个返回值表示是否新增了一条未读（调用方据此触发通知）。
func ApplyInsert(s State, msg *model.Message, userID string) (State, bool) {
	if msg == nil || msg.SenderID == userID {
		return s, false
	}
	next := s.Clone()
	next.ByConversation[msg.ConversationID]++
	next.Total++
	return next, true
}

// ApplyUpdate 仅处理已读回执：before 未读 -> after 已读，且不是自己发的消息。
// 本地没有该会话的计数时直接跳过，差异留给下一次全量校准。
func ApplyUpdate(s State, before, after *model.Message, userID string) State {
	if before == nil || after == nil {
		return s
	}
	if before.IsRead || !after.IsRead || after.SenderID == userID {
		return s
	}
	current, ok := s.ByConversation[after.ConversationID]
	if !ok || current <= 0 {
		return s
	}

	next := s.Clone()
	if current-1 <= 0 {
		delete(next.ByConversation, after.ConversationID)
	} else {
		next.ByConversation[after.ConversationID] = current - 1
	}
	next.Total = max(next.Total-1, 0)
	return next
}

// MarkConversationRead 本地乐观清零某个会话，与远端批量更新同步执行
func MarkConversationRead(s State, conversationID string) State {
	next := s.Clone()
	current := next.ByConversation[conversationID]
	delete(next.ByConversation, conversationID)
	next.Total = max(next.Total-current, 0)
	return next
}
