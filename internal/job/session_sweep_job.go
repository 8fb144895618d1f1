package job

import (
	"EdVix/internal/pkg/logger"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// IdleEvicter 可按空闲时长回收的内存会话
type IdleEvicter interface {
	EvictIdle(ctx context.Context, idle time.Duration) int
}

// SessionSweeper 一个待清理的会话集合及其空闲阈值
type SessionSweeper struct {
	Name    string
	Target  IdleEvicter
	IdleTTL time.Duration
}

// SessionSweepJob 定时回收空闲的验证码流程与聊天存储
type SessionSweepJob struct {
	sweepers []SessionSweeper
}

func NewSessionSweepJob(sweepers ...SessionSweeper) *SessionSweepJob {
	return &SessionSweepJob{sweepers: sweepers}
}

func (s *SessionSweepJob) Run() {
	traceID := "job-sweep-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)

	for _, sw := range s.sweepers {
		if sw.IdleTTL <= 0 {
			continue
		}
		if n := sw.Target.EvictIdle(ctx, sw.IdleTTL); n > 0 {
			log.InfoContext(ctx, "evicted idle sessions", "kind", sw.Name, "count", n)
		}
	}
}
