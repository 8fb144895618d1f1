package cron

import (
	"EdVix/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	sessionSweepJob *job.SessionSweepJob
}

func NewCronManager(sessionSweepJob *job.SessionSweepJob) *Manager {
	return &Manager{
		engine:          cron.New(cron.WithSeconds()),
		sessionSweepJob: sessionSweepJob,
	}
}

// sessionSweepSpec 每分钟清理一次空闲会话
const sessionSweepSpec = "0 * * * * *"

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(sessionSweepSpec, cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(s.sessionSweepJob)); err != nil {
		return err
	}
	return nil
}

// Run 注册并启动全部任务
func (s *Manager) Run() error {
	if err := s.RegisterJobs(); err != nil {
		return err
	}
	log.Info("Cron 定时任务引擎启动", "jobs", len(s.engine.Entries()))
	s.engine.Start()
	return nil
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}
