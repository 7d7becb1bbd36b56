package changefeed

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// Publisher 把变更事件发布到对应表的频道
type Publisher interface {
	Publish(ctx context.Context, env *Envelope) error
}

type RedisPublisher struct {
	rdb      *redis.Client
	channels map[string]string
}

func NewRedisPublisher(rdb *redis.Client, channels map[string]string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channels: channels}
}

func (p *RedisPublisher) Publish(ctx context.Context, env *Envelope) error {
	channel, ok := p.channels[env.Table]
	if !ok {
		return fmt.Errorf("no change channel for table %q", env.Table)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, channel, data).Err()
}
