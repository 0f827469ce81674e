package service

import (
	"context"
	"fmt"
	log "log/slog"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
	"github.com/mm-shkurin/rlt-test-bot/internal/repository"
)

// QueryTranslator 自然语言 -> IR，由 translator.Translator 实现
type QueryTranslator interface {
	Translate(ctx context.Context, text string) (ir.Query, error)
}

type QueryService interface {
	// Answer 翻译并执行问题，返回唯一的整数结果
	Answer(ctx context.Context, text string) (int64, error)
	// Translate 只翻译不执行，用于调试提示词
	Translate(ctx context.Context, text string) (ir.Query, error)
}

type queryServiceImpl struct {
	translator     QueryTranslator
	videoStatsRepo repository.VideoStatsRepo
	executeTimeout time.Duration
}

// NewQueryService executeTimeout <= 0 时执行阶段只受调用方 ctx 约束
func NewQueryService(translator QueryTranslator, videoStatsRepo repository.VideoStatsRepo, executeTimeout time.Duration) QueryService {
	return &queryServiceImpl{
		translator:     translator,
		videoStatsRepo: videoStatsRepo,
		executeTimeout: executeTimeout,
	}
}

func (s *queryServiceImpl) Answer(ctx context.Context, text string) (int64, error) {
	start := time.Now()

	q, err := s.Translate(ctx, text)
	if err != nil {
		return 0, err
	}

	execCtx := ctx
	if s.executeTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.executeTimeout)
		defer cancel()
	}

	value, err := s.videoStatsRepo.Aggregate(execCtx, q)
	if err != nil {
		log.ErrorContext(ctx, "查询执行失败", "err", err, "query_type", q.Type, "table", q.Table)
		return 0, typed(err)
	}

	log.InfoContext(ctx, "查询完成", "result", value, "elapsed", time.Since(start))
	return value, nil
}

func (s *queryServiceImpl) Translate(ctx context.Context, text string) (ir.Query, error) {
	q, err := s.translator.Translate(ctx, text)
	if err != nil {
		return ir.Query{}, typed(err)
	}
	return q, nil
}

// typed 保证对外只暴露一种已知的失败类型
func typed(err error) error {
	if apperrors.KindOf(err) != nil {
		return err
	}
	return fmt.Errorf("%w: %v", UnExpectedError, err)
}
