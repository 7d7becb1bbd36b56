package redis

import (
	"Marketplace/internal/api/config"
	"Marketplace/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

const (
	clientName  = "marketplace-unread"
	slowCommand = 100 * time.Millisecond
	pingTimeout = 5 * time.Second
)

var Rdb *redis.Client

// InitRedis 缓存、token 黑名单与变更事件的 Pub/Sub 共用一个客户端，
// 每个订阅会话由 go-redis 单独占用一条连接
func InitRedis(cfg config.RedisConfig) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:                  cfg.Addr,
		Password:              cfg.Password,
		DB:                    cfg.DB,
		PoolSize:              cfg.PoolSize,
		ClientName:            clientName,
		ContextTimeoutEnabled: true,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	rdb.AddHook(logger.NewRedisLogger(slowCommand))

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	Rdb = rdb
	log.Info("Redis connection established", "addr", cfg.Addr, "db", cfg.DB)
	return nil
}
