// Package queue 基于 Redis 列表的查询任务队列。
//
// 生产者 LPUSH 到 pending，消费者用 BLMOVE 把任务原子地移入 processing，
// 完成后把结果写入每个任务独立的结果列表并从 processing 删除。
// 进程崩溃遗留在 processing 中的任务由 Stale + Complete 收尾。
package queue

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/consts"
	"github.com/redis/go-redis/v9"
)

var (
	ErrFull        = errors.New("查询队列已满，请稍后重试")
	ErrWaitTimeout = errors.New("等待查询结果超时")
)

type Job struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	TraceID    string    `json:"trace_id,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	Deadline   time.Time `json:"deadline"`

	// raw 入队时的原始载荷，LREM 需要逐字节匹配
	raw string
}

// Outcome 任务结果，Kind 为空表示成功
type Outcome struct {
	JobID   string `json:"job_id"`
	Value   int64  `json:"value"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

type Options struct {
	Prefix    string
	ResultTTL time.Duration
	// MaxPending 为 0 时不限制排队长度
	MaxPending int64
}

type Queue struct {
	rdb  *redis.Client
	opts Options
	now  func() time.Time
}

func New(rdb *redis.Client, opts Options) *Queue {
	if opts.Prefix == "" {
		opts.Prefix = "query"
	}
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = 5 * time.Minute
	}
	return &Queue{rdb: rdb, opts: opts, now: time.Now}
}

func (q *Queue) pendingKey() string    { return q.opts.Prefix + consts.QueuePendingKey }
func (q *Queue) processingKey() string { return q.opts.Prefix + consts.QueueProcessingKey }
func (q *Queue) resultKey(id string) string {
	return q.opts.Prefix + consts.QueueResultKey + id
}

// Enqueue 提交一个问题，timeout 决定任务的截止时间
func (q *Queue) Enqueue(ctx context.Context, text, traceID string, timeout time.Duration) (Job, error) {
	if q.opts.MaxPending > 0 {
		n, err := q.rdb.LLen(ctx, q.pendingKey()).Result()
		if err != nil {
			return Job{}, err
		}
		if n >= q.opts.MaxPending {
			log.WarnContext(ctx, "查询队列已满", "pending", n)
			return Job{}, ErrFull
		}
	}

	now := q.now()
	job := Job{
		ID:         uuid.NewString(),
		Text:       text,
		TraceID:    traceID,
		EnqueuedAt: now,
		Deadline:   now.Add(timeout),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return Job{}, err
	}
	if err = q.rdb.LPush(ctx, q.pendingKey(), payload).Err(); err != nil {
		return Job{}, err
	}

	job.raw = string(payload)
	log.InfoContext(ctx, "查询任务已入队", "job_id", job.ID)
	return job, nil
}

// Reserve 阻塞最多 wait 取出一个任务，没有任务时返回 nil, nil
func (q *Queue) Reserve(ctx context.Context, wait time.Duration) (*Job, error) {
	raw, err := q.rdb.BLMove(ctx, q.pendingKey(), q.processingKey(), "RIGHT", "LEFT", wait).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	job, err := decodeJob(raw)
	if err != nil {
		// 无法解析的载荷直接丢弃
		q.rdb.LRem(ctx, q.processingKey(), 1, raw)
		return nil, err
	}
	return job, nil
}

// Complete 发布结果并把任务移出 processing
func (q *Queue) Complete(ctx context.Context, job *Job, out Outcome) error {
	out.JobID = job.ID
	payload, err := json.Marshal(out)
	if err != nil {
		return err
	}

	key := q.resultKey(job.ID)
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, payload)
		pipe.Expire(ctx, key, q.opts.ResultTTL)
		pipe.LRem(ctx, q.processingKey(), 1, job.raw)
		return nil
	})
	return err
}

// Wait 阻塞等待任务结果，超时返回 ErrWaitTimeout
func (q *Queue) Wait(ctx context.Context, jobID string, timeout time.Duration) (Outcome, error) {
	res, err := q.rdb.BLPop(ctx, timeout, q.resultKey(jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Outcome{}, ErrWaitTimeout
		}
		return Outcome{}, err
	}

	// BLPOP 返回 [key, value]
	var out Outcome
	if err = json.Unmarshal([]byte(res[1]), &out); err != nil {
		return Outcome{}, fmt.Errorf("decode outcome: %w", err)
	}
	return out, nil
}

// Stale 返回 processing 中已过截止时间的任务
func (q *Queue) Stale(ctx context.Context) ([]*Job, error) {
	raws, err := q.rdb.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	now := q.now()
	var stale []*Job
	for _, raw := range raws {
		job, err := decodeJob(raw)
		if err != nil {
			log.WarnContext(ctx, "processing 中存在无法解析的任务", "err", err)
			continue
		}
		if now.After(job.Deadline) {
			stale = append(stale, job)
		}
	}
	return stale, nil
}

func decodeJob(raw string) (*Job, error) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	job.raw = raw
	return &job, nil
}
