// Package translator 把自然语言问题翻译成校验过的查询 IR。
//
// 流程固定为：构建提示词 -> 调用模型 -> 提取 JSON -> 启发式修复 -> 白名单校验。
// 模型输出一律视为不可信输入，只有通过 Validator 的结果才会交给执行器。
package translator

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/apperrors"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/catalog"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/ir"
)

// Generator 模型调用边界：输入提示词，返回模型原始文本
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// GeneratorFunc 便于测试时直接传入函数
type GeneratorFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

type Translator struct {
	gen       Generator
	prompts   *PromptBuilder
	validator *Validator
	timeout   time.Duration
}

// NewTranslator timeout <= 0 时不额外限制模型调用时长，仅受调用方 ctx 约束
func NewTranslator(gen Generator, c *catalog.Catalog, examples []Example, timeout time.Duration) *Translator {
	return &Translator{
		gen:       gen,
		prompts:   NewPromptBuilder(c, examples),
		validator: NewValidator(c),
		timeout:   timeout,
	}
}

// Translate 返回校验通过的 IR，失败时错误可用 apperrors.KindOf 归类
func (t *Translator) Translate(ctx context.Context, text string) (ir.Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ir.Query{}, fmt.Errorf("%w: empty question", apperrors.ErrValidation)
	}

	raw, err := t.generate(ctx, t.prompts.Compose(text))
	if err != nil {
		return ir.Query{}, err
	}

	draft, err := Extract(raw)
	if err != nil {
		log.WarnContext(ctx, "模型返回内容解析失败", "err", err, "raw", raw)
		return ir.Query{}, err
	}

	repaired, applied := RepairDraft(draft, text)
	if len(applied) > 0 {
		log.InfoContext(ctx, "已修复模型输出", "steps", applied, "before", draft, "after", repaired)
	}

	q, err := t.validator.Validate(repaired)
	if err != nil {
		log.WarnContext(ctx, "查询校验未通过", "err", err, "draft", repaired)
		return ir.Query{}, err
	}
	if len(q.Filters.Unknown) > 0 {
		log.WarnContext(ctx, "忽略未知的过滤条件", "keys", q.Filters.Unknown)
	}

	log.InfoContext(ctx, "查询翻译完成", "query_type", q.Type, "table", q.Table, "field", q.Field)
	return q, nil
}

func (t *Translator) generate(ctx context.Context, prompt Prompt) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.WarnContext(ctx, "模型调用超时", "elapsed", time.Since(start))
			return "", fmt.Errorf("%w: model call: %v", apperrors.ErrTimeout, err)
		}
		if errors.Is(err, apperrors.ErrTimeout) {
			return "", err
		}
		log.ErrorContext(ctx, "模型调用失败", "err", err)
		return "", fmt.Errorf("%w: %v", apperrors.ErrModelUnavailable, err)
	}

	log.DebugContext(ctx, "模型调用完成", "elapsed", time.Since(start))
	return raw, nil
}
