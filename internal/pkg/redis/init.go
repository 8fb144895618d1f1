package redis

import (
	"EdVix/internal/api/config"
	"EdVix/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// Rdb 验证码、令牌黑名单、会话快照与提示标记共用的客户端
var Rdb *redis.Client

// InitRedis 初始化 Redis 客户端连接，连通失败时不替换已有客户端
func InitRedis(cfg config.RedisConfig) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: 3 * time.Second,

		MaintNotificationsConfig: &maintnotifications.Config{
			Mode: maintnotifications.ModeDisabled,
		},
	})
	rdb.AddHook(logger.NewRedisLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return errors.Wrapf(err, "ping redis %s", cfg.Addr)
	}

	Rdb = rdb
	log.Info("Redis initialized successfully", "addr", cfg.Addr, "db", cfg.DB)
	return nil
}
