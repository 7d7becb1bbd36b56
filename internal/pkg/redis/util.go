package redis

import (
	"Marketplace/internal/pkg/consts"
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevokeToken 将 token 签名加入黑名单直到其自然过期；已过期的 token 无需记录
func RevokeToken(ctx context.Context, signature string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return Rdb.Set(ctx, consts.TokenRevokedKey+signature, 1, ttl).Err()
}

// IsTokenRevoked 签名是否在黑名单中
func IsTokenRevoked(ctx context.Context, signature string) (bool, error) {
	n, err := Rdb.Exists(ctx, consts.TokenRevokedKey+signature).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetRdbClient 获取redis客户端
func GetRdbClient() *redis.Client {
	return Rdb
}
