package unread

import "sync"

// Store 持有当前状态；写入只能通过折叠函数，读取拿到的都是副本
type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: Empty()}
}

// Snapshot 当前状态副本
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Store) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Total
}

// ByConversation 按会话的未读数副本
func (s *Store) ByConversation() map[string]int {
	return s.Snapshot().ByConversation
}

// Update 以折叠函数原子地替换状态，返回新状态
func (s *Store) Update(fold func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fold(s.state)
	return s.state.Clone()
}

// Replace 全量替换（用于全量校准）
func (s *Store) Replace(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
}

// Reset 会话结束时丢弃状态
func (s *Store) Reset() {
	s.Replace(Empty())
}
