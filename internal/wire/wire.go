package wire

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mm-shkurin/rlt-test-bot/internal/api"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/config"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/handler"
	"github.com/mm-shkurin/rlt-test-bot/internal/job"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/cron"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/queue"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/translator"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/util"
	"github.com/mm-shkurin/rlt-test-bot/internal/repository"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router  *gin.Engine
	DB      *gorm.DB
	Redis   *redis.Client
	Worker  *job.QueryWorker
	CronMgr *cron.Manager
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Location 解析查询时区，空值按 UTC 处理
func Location(cfg config.QueryConfig) (*time.Location, error) {
	if cfg.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid query timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

func BuildApplication(db *gorm.DB, rdb *redis.Client, gen translator.Generator, cfg *config.Config) (*ApplicationContainer, error) {
	loc, err := Location(cfg.Query)
	if err != nil {
		return nil, err
	}

	dates := util.NewDateParser(cfg.Query.Languages, loc)
	videoStatsRepo := repository.NewVideoStatsRepository(db, dates)

	tr := translator.NewTranslator(gen, catalog.Default(), translator.DefaultExamples, seconds(cfg.Query.TranslateTimeout))
	queryService := service.NewQueryService(tr, videoStatsRepo, seconds(cfg.Query.ExecuteTimeout))

	jobQueue := queue.New(rdb, queue.Options{
		Prefix:     cfg.Queue.Prefix,
		ResultTTL:  seconds(cfg.Queue.ResultTTL),
		MaxPending: cfg.Queue.MaxPending,
	})
	dispatcher := service.NewQueryDispatcher(jobQueue, seconds(cfg.Queue.JobTimeout), seconds(cfg.Queue.WaitTimeout))

	handlers := &api.HandlersGroup{
		QueryHandler: handler.NewQueryHandler(dispatcher, queryService),
		PingHandler: handler.NewPingHandler(map[string]handler.Pinger{
			"mysql": handler.PingerFunc(func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			}),
			"redis": handler.PingerFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}),
	}

	router := api.SetupRouter(handlers)

	worker := job.NewQueryWorker(jobQueue, queryService, cfg.Queue.Workers, seconds(cfg.Queue.JobTimeout))
	cronMgr := cron.NewCronManager(cfg.Queue.ReaperSpec, job.NewQueueReaperJob(jobQueue))

	return &ApplicationContainer{
		Router:  router,
		DB:      db,
		Redis:   rdb,
		Worker:  worker,
		CronMgr: cronMgr,
	}, nil
}
