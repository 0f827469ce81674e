package job

import (
	"context"
	"fmt"
	log "log/slog"

	"github.com/google/uuid"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/consts"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/queue"
)

// QueueReaperJob 清理 worker 崩溃后滞留在 processing 中的过期任务
type QueueReaperJob struct {
	queue *queue.Queue
}

func NewQueueReaperJob(q *queue.Queue) *QueueReaperJob {
	return &QueueReaperJob{queue: q}
}

func (s *QueueReaperJob) Run() {
	traceID := consts.TracePrefixReaperJob + uuid.NewString()
	ctx := logger.WithTraceID(context.Background(), traceID)

	jobs, err := s.queue.Stale(ctx)
	if err != nil {
		log.ErrorContext(ctx, "获取过期查询任务失败", "err", err)
		return
	}

	for _, job := range jobs {
		out := queue.Failure(fmt.Errorf("%w: job %s exceeded its deadline", apperrors.ErrTimeout, job.ID))
		if err = s.queue.Complete(ctx, job, out); err != nil {
			log.ErrorContext(ctx, "回收过期查询任务失败", "job_id", job.ID, "err", err)
			continue
		}
		log.WarnContext(ctx, "已回收过期查询任务", "job_id", job.ID, "deadline", job.Deadline)
	}
}
