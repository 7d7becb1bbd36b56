package cron

import log "log/slog"

// InitCron 注册并启动定时任务；没有任何任务时不启动引擎，Stop 仍可安全调用
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return err
	}
	entries := mgr.Entries()
	if entries == 0 {
		log.Info("Cron Jobs skipped, nothing registered")
		return nil
	}
	log.Info("Cron Jobs starting...", "entries", entries)
	mgr.Start()
	return nil
}
