package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationModel 已投递的新消息提醒存档
type NotificationModel struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID     string             `bson:"receiver_id" json:"receiver_id"`
	ConversationID string             `bson:"conversation_id" json:"conversation_id"`
	Subject        string             `bson:"subject" json:"subject"` // 公告标题快照
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
