package cron

import (
	"Marketplace/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine          *cron.Cron
	resyncSpec      string
	unreadResyncJob *job.UnreadResyncJob
}

// NewCronManager resyncSpec 为空时不注册未读校准任务
func NewCronManager(resyncSpec string, unreadResyncJob *job.UnreadResyncJob) *Manager {
	return &Manager{
		engine: cron.New(cron.WithSeconds(), cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		resyncSpec:      resyncSpec,
		unreadResyncJob: unreadResyncJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if s.resyncSpec == "" {
		log.Info("unread resync job disabled")
		return nil
	}
	if _, err := s.engine.AddJob(s.resyncSpec, s.unreadResyncJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}

// Entries 已注册的任务数
func (s *Manager) Entries() int {
	return len(s.engine.Entries())
}
