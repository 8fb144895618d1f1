package logger

import (
	"EdVix/internal/pkg/consts"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxRedisArgLen = 256

// 这些前缀下的值是验证码或一次性凭据
var protectedKeyPrefixes = []string{consts.OtpCodeKey, consts.OtpCheckTokenKey}

type RedisLoggerHook struct {
	slowThreshold time.Duration
}

func NewRedisLogger() *RedisLoggerHook {
	return &RedisLoggerHook{slowThreshold: 100 * time.Millisecond}
}

// DialHook 记录建立连接失败
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

// ProcessHook 记录失败与慢命令
func (s *RedisLoggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		elapsed := time.Since(start)

		fields := []any{
			log.String("command", cmd.Name()),
			log.String("args", formatArgs(cmd)),
			log.Duration("latency", elapsed),
		}

		switch {
		case err != nil:
			if errors.Is(err, redis.Nil) {
				return err
			}
			if cmd.Name() == "client" && strings.Contains(err.Error(), "setinfo") {
				return err
			}
			log.ErrorContext(ctx, "Redis Error", append(fields, log.Any("err", err))...)
		case elapsed > s.slowThreshold:
			log.WarnContext(ctx, "Redis Slow", fields...)
		}
		return err
	}
}

// ProcessPipelineHook 只记录失败
func (s *RedisLoggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		if err != nil {
			log.ErrorContext(ctx, "Redis Pipeline Error",
				log.Int("cmd_count", len(cmds)),
				log.Duration("latency", time.Since(start)),
				log.Any("err", err))
		}
		return err
	}
}

// formatArgs 隐藏认证参数和验证码，过长的值（如会话快照）截断
func formatArgs(cmd redis.Cmder) string {
	name := cmd.Name()
	if name == "auth" || name == "hello" {
		return "[PROTECTED]"
	}
	args := cmd.Args()
	if len(args) >= 2 {
		if key, ok := args[1].(string); ok && isProtectedKey(key) {
			return fmt.Sprintf("[%s %s [PROTECTED]]", name, key)
		}
	}
	res := fmt.Sprint(args)
	if len(res) > maxRedisArgLen {
		res = res[:maxRedisArgLen] + "...[truncated]"
	}
	return res
}

func isProtectedKey(key string) bool {
	for _, p := range protectedKeyPrefixes {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}
