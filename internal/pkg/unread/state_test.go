package unread

import (
	"fmt"
	"math/rand"
	"testing"

	"Marketplace/internal/model"
)

const self = "self"

func msg(id, conv, sender string, read bool) *model.Message {
	return &model.Message{ID: id, ConversationID: conv, SenderID: sender, IsRead: read}
}

func assertState(t *testing.T, got State, total int, by map[string]int) {
	t.Helper()
	want := State{Total: total, ByConversation: by}
	if !got.Equal(want) {
		t.Fatalf("state = %+v, want %+v", got, want)
	}
	if !got.Valid() {
		t.Fatalf("state %+v violates invariants", got)
	}
}

func TestScenarios(t *testing.T) {
	// A: 空状态插入一条他人消息
	a, counted := ApplyInsert(Empty(), msg("m1", "c1", "other", false), self)
	if !counted {
		t.Error("scenario A: insert from other should be counted")
	}
	assertState(t, a, 1, map[string]int{"c1": 1})

	// B: 同一会话再来一条
	b, _ := ApplyInsert(a, msg("m2", "c1", "other", false), self)
	assertState(t, b, 2, map[string]int{"c1": 2})

	// C: 标记会话已读
	c := MarkConversationRead(b, "c1")
	assertState(t, c, 0, map[string]int{})

	// D: 从 A 开始，接收方把 m1 标记已读
	d := ApplyUpdate(a, msg("m1", "c1", "other", false), msg("m1", "c1", "other", true), self)
	assertState(t, d, 0, map[string]int{})

	// E: 自己发的消息被忽略
	e, counted := ApplyInsert(b, msg("m3", "c2", self, false), self)
	if counted {
		t.Error("scenario E: self-sent insert should not be counted")
	}
	assertState(t, e, 2, map[string]int{"c1": 2})

	// F: 未知会话的更新
	f := ApplyUpdate(b, msg("m9", "c9", "other", false), msg("m9", "c9", "other", true), self)
	assertState(t, f, 2, map[string]int{"c1": 2})
}

func TestApplyInsertDoesNotMutateInput(t *testing.T) {
	base := FromCounts(map[string]int{"c1": 1})
	_, _ = ApplyInsert(base, msg("m", "c1", "other", false), self)
	assertState(t, base, 1, map[string]int{"c1": 1})
}

func TestApplyInsertOnZeroValueState(t *testing.T) {
	got, _ := ApplyInsert(State{}, msg("m", "c1", "other", false), self)
	assertState(t, got, 1, map[string]int{"c1": 1})
}

func TestApplyUpdateGuard(t *testing.T) {
	base := FromCounts(map[string]int{"c1": 2})
	tests := []struct {
		name   string
		before *model.Message
		after  *model.Message
		total  int
	}{
		{"read transition", msg("m", "c1", "other", false), msg("m", "c1", "other", true), 1},
		{"already read", msg("m", "c1", "other", true), msg("m", "c1", "other", true), 2},
		{"unread to unread (content edit)", msg("m", "c1", "other", false), msg("m", "c1", "other", false), 2},
		{"read to unread", msg("m", "c1", "other", true), msg("m", "c1", "other", false), 2},
		{"own message read by peer", msg("m", "c1", self, false), msg("m", "c1", self, true), 2},
		{"nil before", nil, msg("m", "c1", "other", true), 2},
		{"nil after", msg("m", "c1", "other", false), nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyUpdate(base, tt.before, tt.after, self)
			if got.Total != tt.total {
				t.Errorf("total = %d, want %d", got.Total, tt.total)
			}
			if !got.Valid() {
				t.Errorf("state %+v violates invariants", got)
			}
		})
	}
}

func TestNoDoubleDecrement(t *testing.T) {
	s, _ := ApplyInsert(Empty(), msg("m1", "c1", "other", false), self)
	s, _ = ApplyInsert(s, msg("m2", "c2", "other", false), self)

	s = MarkConversationRead(s, "c1")
	assertState(t, s, 1, map[string]int{"c2": 1})

	// 远端批量更新产生的回声事件
	s = ApplyUpdate(s, msg("m1", "c1", "other", false), msg("m1", "c1", "other", true), self)
	assertState(t, s, 1, map[string]int{"c2": 1})
}

func TestMarkConversationReadUnknown(t *testing.T) {
	s := MarkConversationRead(FromCounts(map[string]int{"c1": 3}), "nope")
	assertState(t, s, 3, map[string]int{"c1": 3})

	s = MarkConversationRead(Empty(), "c1")
	assertState(t, s, 0, map[string]int{})
}

func TestFromCountsDropsNonPositive(t *testing.T) {
	s := FromCounts(map[string]int{"c1": 2, "c2": 0, "c3": -1, "c4": 1})
	assertState(t, s, 3, map[string]int{"c1": 2, "c4": 1})
}

func TestInvariantUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	convs := []string{"c1", "c2", "c3", "c4"}
	senders := []string{self, "u1", "u2"}

	for round := 0; round < 200; round++ {
		s := Empty()
		for step := 0; step < 100; step++ {
			conv := convs[rng.Intn(len(convs))]
			sender := senders[rng.Intn(len(senders))]
			id := fmt.Sprintf("m%d-%d", round, step)
			switch rng.Intn(3) {
			case 0:
				s, _ = ApplyInsert(s, msg(id, conv, sender, false), self)
			case 1:
				s = ApplyUpdate(s,
					msg(id, conv, sender, rng.Intn(4) == 0),
					msg(id, conv, sender, rng.Intn(4) != 0),
					self)
			case 2:
				s = MarkConversationRead(s, conv)
			}
			if !s.Valid() {
				t.Fatalf("round %d step %d: invariant violated: %+v", round, step, s)
			}
		}
	}
}

func TestStore(t *testing.T) {
	st := NewStore()
	if st.Total() != 0 {
		t.Fatalf("new store total = %d, want 0", st.Total())
	}

	st.Update(func(s State) State {
		next, _ := ApplyInsert(s, msg("m1", "c1", "other", false), self)
		return next
	})
	if st.Total() != 1 {
		t.Errorf("total = %d, want 1", st.Total())
	}

	// 返回的是副本
	by := st.ByConversation()
	by["c1"] = 100
	if st.ByConversation()["c1"] != 1 {
		t.Error("ByConversation should return a copy")
	}

	st.Replace(FromCounts(map[string]int{"c2": 4}))
	assertState(t, st.Snapshot(), 4, map[string]int{"c2": 4})

	st.Reset()
	assertState(t, st.Snapshot(), 0, map[string]int{})
}
