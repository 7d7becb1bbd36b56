package consts

// gin.Context / context.Context 中的键
const (
	UserIDKey = "user_id"
	TokenKey  = "token"
)

// websocket 推送的事件类型
const (
	WsOpUnreadSnapshot = "unread.snapshot"
	WsOpMessageNotify  = "message.notify"
	WsOpSessionClosed  = "session.closed"
	WsOpHeartbeat      = "heartbeat"
	WsOpHeartbeatAck   = "heartbeat.ack"
)
