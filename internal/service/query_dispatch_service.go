package service

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/queue"
)

// QueryDispatcher 把问题交给后台 worker 执行，并在限定时间内等待结果
type QueryDispatcher interface {
	Submit(ctx context.Context, text string) (int64, error)
}

type queryDispatcherImpl struct {
	queue       *queue.Queue
	jobTimeout  time.Duration
	waitTimeout time.Duration
}

func NewQueryDispatcher(q *queue.Queue, jobTimeout, waitTimeout time.Duration) QueryDispatcher {
	return &queryDispatcherImpl{
		queue:       q,
		jobTimeout:  jobTimeout,
		waitTimeout: waitTimeout,
	}
}

func (s *queryDispatcherImpl) Submit(ctx context.Context, text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("%w: empty question", apperrors.ErrValidation)
	}

	job, err := s.queue.Enqueue(ctx, text, logger.TraceID(ctx), s.jobTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrFull) {
			return 0, ErrQueueFull
		}
		return 0, fmt.Errorf("%w: enqueue: %v", apperrors.ErrStorage, err)
	}

	out, err := s.queue.Wait(ctx, job.ID, s.waitTimeout)
	if err != nil {
		if errors.Is(err, queue.ErrWaitTimeout) {
			log.WarnContext(ctx, "等待查询结果超时", "job_id", job.ID)
			return 0, ErrWaitTimeout
		}
		if apperrors.IsTimeout(err) {
			return 0, fmt.Errorf("%w: wait: %v", apperrors.ErrTimeout, err)
		}
		return 0, fmt.Errorf("%w: wait: %v", apperrors.ErrStorage, err)
	}

	if err = out.Err(); err != nil {
		return 0, err
	}
	return out.Value, nil
}
