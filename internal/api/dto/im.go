package dto

// UnreadDTO 未读状态
type UnreadDTO struct {
	Total          int            `json:"total"`
	ByConversation map[string]int `json:"by_conversation"`
	Subscribed     bool           `json:"subscribed"` // 实时通道是否已确认
	State          string         `json:"state"`
}

// MarkAsReadReq 标记会话已读请求体
type MarkAsReadReq struct {
	ConversationID string `json:"conversation_id" binding:"required,uuid"`
}

// NotificationListReq 提醒分页
type NotificationListReq struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

// NotificationDTO 提醒存档
type NotificationDTO struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Subject        string `json:"subject"`
	CreatedAt      string `json:"created_at"`
}

// NotificationListDTO 提醒分页结果
type NotificationListDTO struct {
	List  []*NotificationDTO `json:"list"`
	Total int64              `json:"total"`
}

// WsMessage websocket 下行消息
type WsMessage struct {
	Op   string      `json:"op"`
	Data interface{} `json:"data,omitempty"`
}

// NotifyDTO 新消息提醒推送
type NotifyDTO struct {
	ConversationID string `json:"conversation_id"`
	Subject        string `json:"subject"`
	CreatedAt      string `json:"created_at"`
}
