package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const notificationCollection = "im_notification"

type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *NotificationModel) error
	GetNotificationList(ctx context.Context, userID string, limit, offset int64) ([]*NotificationModel, error)
	CountNotifications(ctx context.Context, userID string) (int64, error)
}

type notificationRepoImpl struct {
	col *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) NotificationRepo {
	return &notificationRepoImpl{
		col: db.Collection(notificationCollection),
	}
}

// CreateNotification 插入一条提醒存档
func (s *notificationRepoImpl) CreateNotification(ctx context.Context, n *NotificationModel) error {
	_, err := s.col.InsertOne(ctx, n)
	return err
}

// GetNotificationList 分页获取用户的提醒 (按时间倒序)
func (s *notificationRepoImpl) GetNotificationList(ctx context.Context, userID string, limit, offset int64) ([]*NotificationModel, error) {
	filter := bson.M{"receiver_id": userID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var list []*NotificationModel
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *notificationRepoImpl) CountNotifications(ctx context.Context, userID string) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"receiver_id": userID})
}
