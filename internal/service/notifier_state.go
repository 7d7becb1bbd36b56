package service

import (
	"fmt"
	"slices"
)

// NotifierState 实时通道的生命周期状态
type NotifierState string

const (
	StateIdle       NotifierState = "IDLE"
	StateConnecting NotifierState = "CONNECTING"
	StateSubscribed NotifierState = "SUBSCRIBED"
	StateClosed     NotifierState = "CLOSED"
)

// validTransitions 允许的状态迁移；CLOSED 是终态，重新订阅需要新的 Notifier
var validTransitions = map[NotifierState][]NotifierState{
	StateIdle:       {StateConnecting, StateClosed},
	StateConnecting: {StateSubscribed, StateClosed},
	StateSubscribed: {StateClosed},
	StateClosed:     {},
}

// lifecycle 状态机本身不加锁，由 Notifier.mu 保护
type lifecycle struct {
	current NotifierState
}

func newLifecycle() lifecycle {
	return lifecycle{current: StateIdle}
}

func (l *lifecycle) transition(to NotifierState) error {
	if !slices.Contains(validTransitions[l.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", l.current, to)
	}
	l.current = to
	return nil
}
