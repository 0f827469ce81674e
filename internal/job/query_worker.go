package job

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/consts"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/queue"
	"github.com/mm-shkurin/rlt-test-bot/internal/service"
	"golang.org/x/sync/errgroup"
)

const (
	reservePoll     = 2 * time.Second
	retryBackoff    = time.Second
	maxRetryBackoff = 30 * time.Second
)

// QueryWorker 从队列消费查询任务，每个任务独立超时并在 panic 时回写失败结果
type QueryWorker struct {
	queue      *queue.Queue
	querySvc   service.QueryService
	workers    int
	jobTimeout time.Duration
}

func NewQueryWorker(q *queue.Queue, querySvc service.QueryService, workers int, jobTimeout time.Duration) *QueryWorker {
	if workers < 1 {
		workers = 1
	}
	return &QueryWorker{
		queue:      q,
		querySvc:   querySvc,
		workers:    workers,
		jobTimeout: jobTimeout,
	}
}

// Run 阻塞直到 ctx 取消
func (w *QueryWorker) Run(ctx context.Context) error {
	log.Info("查询 worker 启动", "workers", w.workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		id := i
		g.Go(func() error {
			w.loop(ctx, id)
			return nil
		})
	}
	err := g.Wait()
	log.Info("查询 worker 已停止")
	return err
}

// newReserveBackOff Redis 不可用时的重试间隔，不设总时长上限
func newReserveBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0
	bo.InitialInterval = retryBackoff
	bo.MaxInterval = maxRetryBackoff
	bo.Reset()
	return bo
}

func (w *QueryWorker) loop(ctx context.Context, id int) {
	bo := newReserveBackOff()
	for ctx.Err() == nil {
		job, err := w.queue.Reserve(ctx, reservePoll)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			log.Error("获取查询任务失败", "worker", id, "retry_in", wait, "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		bo.Reset()
		if job == nil {
			continue
		}
		w.Handle(ctx, job)
	}
}

// Handle 执行单个任务并发布结果
func (w *QueryWorker) Handle(ctx context.Context, job *queue.Job) {
	traceID := job.TraceID
	if traceID == "" {
		traceID = consts.TracePrefixQueryJob + uuid.NewString()
	}
	// 停机时也要把结果写回
	base := logger.WithTraceID(context.WithoutCancel(ctx), traceID)

	out := w.execute(base, job)
	if err := w.queue.Complete(base, job, out); err != nil {
		log.ErrorContext(base, "回写查询结果失败", "job_id", job.ID, "err", err)
	}
}

func (w *QueryWorker) execute(ctx context.Context, job *queue.Job) (out queue.Outcome) {
	deadline := job.Deadline
	if w.jobTimeout > 0 {
		if d := time.Now().Add(w.jobTimeout); deadline.IsZero() || d.Before(deadline) {
			deadline = d
		}
	}
	if !deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "查询任务 panic", "job_id", job.ID, "panic", r)
			out = queue.Failure(fmt.Errorf("%w: %v", service.UnExpectedError, r))
		}
	}()

	log.InfoContext(ctx, "开始执行查询任务", "job_id", job.ID, "waited", time.Since(job.EnqueuedAt))
	value, err := w.querySvc.Answer(ctx, job.Text)
	if err != nil {
		return queue.Failure(err)
	}
	return queue.Success(value)
}
