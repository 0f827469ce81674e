package main

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/api/config"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/database"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/llm"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/redis"
	"github.com/mm-shkurin/rlt-test-bot/internal/wire"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Fatal error: failed to load configuration", "err", err)
		panic(err)
	}

	// 初始化日志
	logger.InitLogger(cfg.Logstash)

	loc, err := wire.Location(cfg.Query)
	if err != nil {
		log.Error("Fatal error: invalid query timezone", "err", err)
		panic(err)
	}

	// 数据库连接
	db, err := database.NewGormDB(&cfg.DB, loc)
	if err != nil {
		log.Error("Fatal error: failed to create database connection", "err", err)
		panic(err)
	}

	// Redis 连接
	rdb, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Error("Fatal error: failed to create redis connection", "err", err)
		panic(err)
	}
	defer func() { _ = rdb.Close() }()

	// llm 模型初始化
	gen, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		log.Error("Fatal error: failed to initialize llm client", "err", err)
		panic(err)
	}

	// 依赖注入
	app, err := wire.BuildApplication(db, rdb, gen, cfg)
	if err != nil {
		log.Error("Fatal error: failed to create application", "err", err)
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// 定时任务
	g.Go(func() error {
		return app.CronMgr.Run(ctx)
	})

	// 查询 worker
	g.Go(func() error {
		return app.Worker.Run(ctx)
	})

	// HTTP 服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP Server starting...", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 优雅退出
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case <-ctx.Done():
		case sig := <-quit:
			log.Info("Received signal, shutting down...", "signal", sig)
			cancel()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP Server shutdown failed", "err", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("App exited with error", "err", err)
	}
	log.Info("App exited successfully.")
}
