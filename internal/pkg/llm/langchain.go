package llm

import (
	"context"
	"errors"
	log "log/slog"

	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/translator"
	"github.com/tmc/langchaingo/llms"
)

// LangChainGenerator 通过 langchaingo 调用 OpenAI 兼容接口
type LangChainGenerator struct {
	client      llms.Model
	model       string
	temperature float64
	limiter     *Limiter
}

func NewLangChainGenerator(client llms.Model, model string, temperature float64, limiter *Limiter) *LangChainGenerator {
	return &LangChainGenerator{
		client:      client,
		model:       model,
		temperature: temperature,
		limiter:     limiter,
	}
}

func (g *LangChainGenerator) Generate(ctx context.Context, prompt translator.Prompt) (string, error) {
	release, err := g.limiter.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	messages := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt.System),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(prompt.User),
			},
		},
	}
	log.InfoContext(ctx, "正在请求AI大模型", "model", g.model)
	resp, err := g.client.GenerateContent(ctx, messages,
		llms.WithModel(g.model),
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
