package cron

import (
	"context"
	log "log/slog"

	"github.com/mm-shkurin/rlt-test-bot/internal/job"
	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine     *cron.Cron
	reaperSpec string
	reaperJob  *job.QueueReaperJob
}

// NewCronManager reaperSpec 支持 robfig/cron 的描述符（如 "@every 1m"）和带秒的六段表达式
func NewCronManager(reaperSpec string, reaperJob *job.QueueReaperJob) *Manager {
	if reaperSpec == "" {
		reaperSpec = "@every 1m"
	}
	return &Manager{
		engine:     cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		reaperSpec: reaperSpec,
		reaperJob:  reaperJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if _, err := s.engine.AddJob(s.reaperSpec, s.reaperJob); err != nil {
		return err
	}
	return nil
}

// Run 注册并启动定时任务，ctx 取消后等待正在执行的任务结束
func (s *Manager) Run(ctx context.Context) error {
	if err := s.RegisterJobs(); err != nil {
		return err
	}

	log.Info("Cron 定时任务引擎启动", "reaper_spec", s.reaperSpec)
	s.engine.Start()

	<-ctx.Done()
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
	return nil
}
