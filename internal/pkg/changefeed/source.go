package changefeed

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

const eventBufferSize = 256

// Source 按表订阅变更事件；只做表级过滤，行级过滤由调用方负责
type Source interface {
	Subscribe(ctx context.Context, table string) (Subscription, error)
}

// Subscription 一条实时通道
type Subscription interface {
	// Ready 阻塞直到传输层确认订阅成功
	Ready(ctx context.Context) error
	// Events Ready 成功后开始投递，通道关闭表示订阅结束
	Events() <-chan Event
	Close() error
}

// RedisSource 基于 Redis Pub/Sub 的事件源，每张表一个频道
type RedisSource struct {
	rdb      *redis.Client
	channels map[string]string
}

// NewRedisSource channels: 表名 -> Redis 频道
func NewRedisSource(rdb *redis.Client, channels map[string]string) *RedisSource {
	return &RedisSource{rdb: rdb, channels: channels}
}

func (s *RedisSource) Subscribe(ctx context.Context, table string) (Subscription, error) {
	channel, ok := s.channels[table]
	if !ok {
		return nil, fmt.Errorf("no change channel for table %q", table)
	}
	return newRedisSubscription(table, channel, s.rdb.Subscribe(ctx, channel)), nil
}

func newRedisSubscription(table, channel string, pubsub *redis.PubSub) *redisSubscription {
	return &redisSubscription{
		table:   table,
		channel: channel,
		pubsub:  pubsub,
		events:  make(chan Event, eventBufferSize),
		done:    make(chan struct{}),
	}
}

type redisSubscription struct {
	table   string
	channel string
	pubsub  *redis.PubSub
	events  chan Event
	done    chan struct{}

	startOnce sync.Once
	closeOnce sync.Once
}

// Ready 等待 SUBSCRIBE 确认，之后启动投递协程
func (s *redisSubscription) Ready(ctx context.Context) error {
	reply, err := s.pubsub.Receive(ctx)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	if err = checkSubscribeAck(s.channel, reply); err != nil {
		return err
	}
	s.startOnce.Do(func() { go s.pump(s.pubsub.Channel()) })
	return nil
}

// checkSubscribeAck 只有针对本频道的 subscribe 回复才算确认
func checkSubscribeAck(channel string, reply interface{}) error {
	sub, ok := reply.(*redis.Subscription)
	if !ok || sub.Kind != "subscribe" || sub.Channel != channel {
		return fmt.Errorf("subscribe %s: unexpected reply %T", channel, reply)
	}
	return nil
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.pubsub != nil {
			err = s.pubsub.Close()
		}
	})
	return err
}

func (s *redisSubscription) pump(ch <-chan *redis.Message) {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			evt, ok := s.accept(msg)
			if !ok {
				continue
			}
			select {
			case s.events <- evt:
			case <-s.done:
				return
			}
		}
	}
}

// accept 解码失败或不属于本表的负载直接丢弃
func (s *redisSubscription) accept(msg *redis.Message) (Event, bool) {
	evt, err := Decode([]byte(msg.Payload))
	if err != nil {
		if !errors.Is(err, ErrUnsupportedType) {
			log.Warn("drop malformed change event", "channel", s.channel, "err", err)
		}
		return nil, false
	}
	if evt.Table() != s.table {
		return nil, false
	}
	return evt, true
}
