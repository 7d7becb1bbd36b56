package wire

import (
	"Marketplace/internal/api"
	"Marketplace/internal/api/config"
	"Marketplace/internal/api/handler"
	"Marketplace/internal/job"
	"Marketplace/internal/pkg/changefeed"
	"Marketplace/internal/pkg/cron"
	"Marketplace/internal/pkg/kafka"
	"Marketplace/internal/pkg/mongo"
	"Marketplace/internal/pkg/redis"
	"Marketplace/internal/repository"
	"Marketplace/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	mongoDB "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Sessions     service.SessionManager
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoConn *mongoDB.Database, cfg *config.Config) (*ApplicationContainer, error) {
	rdb := redis.GetRdbClient()
	channels := map[string]string{changefeed.TableMessages: cfg.Notifier.ChangeChannel}

	convRepo := repository.NewConversationRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	notificationRepo := mongo.NewNotificationRepo(mongoConn)

	counter := service.NewUnreadCounter(convRepo, messageRepo)
	lookup := service.NewConversationLookup(convRepo, rdb, time.Duration(cfg.Notifier.ParticipantCacheTTL)*time.Second)

	var archive service.NotificationSink
	if cfg.Notifier.ArchiveEnable {
		archive = service.NewArchiveSink(notificationRepo)
	}

	sessions := service.NewSessionManager(service.NotifierDeps{
		Counter:  counter,
		Messages: messageRepo,
		Lookup:   lookup,
		Source:   changefeed.NewRedisSource(rdb, channels),
		Sink:     archive,
	})
	unreadService := service.NewUnreadService(sessions, counter, lookup, messageRepo, notificationRepo)
	authService := service.NewAuthService(sessions)

	handlers := &api.HandlersGroup{
		UserHandler:   handler.NewUserHandler(authService),
		UnreadHandler: handler.NewUnreadHandler(unreadService),
		WsHandler:     handler.NewWsHandler(sessions),
	}

	router := api.SetupRouter(handlers, cfg.Server, cfg.Logstash)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, changefeed.NewRedisPublisher(rdb, channels))
	if err != nil {
		return nil, err
	}

	cronMgr := cron.NewCronManager(cfg.Notifier.ResyncSpec, job.NewUnreadResyncJob(sessions))

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Sessions:     sessions,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
