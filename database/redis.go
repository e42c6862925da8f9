package database

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns a client when addr is set and reachable. Redis is
// optional: callers fall back to MySQL or in-process stores when it is nil.
func ConnectRedis(ctx context.Context, log *zap.Logger, addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		log.Warn("redis ping failed, continuing without redis", zap.String("addr", addr), zap.Error(err))
		_ = rc.Close()
		return nil
	}
	log.Info("redis connected", zap.String("addr", addr))
	return rc
}
