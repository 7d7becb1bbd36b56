package logger

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLoggerHook 记录出错与慢命令
type RedisLoggerHook struct {
	slowThreshold time.Duration
}

func NewRedisLogger(slowThreshold time.Duration) *RedisLoggerHook {
	if slowThreshold <= 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &RedisLoggerHook{slowThreshold: slowThreshold}
}

func (s *RedisLoggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		start := time.Now()
		conn, err := next(ctx, network, addr)
		if err != nil {
			log.ErrorContext(ctx, "Redis Dial Error",
				log.String("addr", addr),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err),
			)
		}
		return conn, err
	}
}

func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		name := cmd.Name()
		if err != nil && ignorableRedisErr(name, err) {
			return err
		}
		if err == nil && elapsed <= s.slowThreshold {
			return nil
		}

		fields := []any{
			log.String("command", name),
			log.String("args", redisArgs(cmd)),
			log.Duration("latency", elapsed),
		}
		if err != nil {
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		} else {
			log.WarnContext(ctx, "Redis Slow", fields...)
		}
		return err
	}
}

func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err))
		}
		return err
	}
}

// ignorableRedisErr 缓存未命中、旧版服务端不支持 CLIENT SETINFO、订阅连接被主动关闭
func ignorableRedisErr(name string, err error) bool {
	if errors.Is(err, redis.Nil) || errors.Is(err, redis.ErrClosed) {
		return true
	}
	return name == "client" && strings.Contains(err.Error(), "setinfo")
}

// redisArgs 变更事件正文可能很长，只保留前几个参数
func redisArgs(cmd redis.Cmder) string {
	switch cmd.Name() {
	case "auth", "hello":
		return "[PROTECTED]"
	case "publish":
		args := cmd.Args()
		if len(args) > 2 {
			return fmt.Sprint(args[:2]) + " [payload omitted]"
		}
	}
	return fmt.Sprint(cmd.Args())
}
