package kafka

import "maps"

// canal 事件类型
const (
	INSERT = "INSERT"
	UPDATE = "UPDATE"
	DELETE = "DELETE"
)

// CanalMessage canal 投递到 Kafka 的 flat message，一条对应一个事务内同一张表的若干行
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"` // binlog 时间，毫秒
	TS       int64    `json:"ts"` // canal 处理时间，毫秒

	// Data 变更后的行
	Data []map[string]interface{} `json:"data"`
	// Old 与 Data 按下标对应，只含发生变化的列
	Old []map[string]interface{} `json:"old"`
}

// IsRowChange 只有 INSERT / UPDATE 会影响未读数，DELETE 与 DDL 不转发
func (m *CanalMessage) IsRowChange() bool {
	return m != nil && !m.IsDDL && (m.Type == INSERT || m.Type == UPDATE)
}

// OldRow 第 i 行变更前的完整数据：新行覆盖上 old 中的变化列。
// 返回新 map，不修改 Data
func (m *CanalMessage) OldRow(i int) map[string]any {
	if i >= len(m.Data) {
		return nil
	}
	old := maps.Clone(m.Data[i])
	if old == nil {
		old = make(map[string]any)
	}
	if i < len(m.Old) {
		maps.Copy(old, m.Old[i])
	}
	return old
}
