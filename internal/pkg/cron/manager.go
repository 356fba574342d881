package cron

import (
	"SmartChat/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine   *cron.Cron
	statsJob *job.StatsJob
}

func NewCronManager(statsJob *job.StatsJob) *Manager {
	return &Manager{
		engine:   cron.New(cron.WithSeconds()),
		statsJob: statsJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob("@every 1m", s.statsJob); err != nil {
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
	s.engine.Stop()
}
