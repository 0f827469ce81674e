// Package llm 实现模型调用边界 translator.Generator。
package llm

import (
	"fmt"
	log "log/slog"
	"time"

	"github.com/mm-shkurin/rlt-test-bot/internal/api/config"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/translator"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI   = "openai"
	ProviderGigaChat = "gigachat"

	modelHTTPTimeout = 60 * time.Second
)

// NewGenerator 按 provider 创建模型客户端
func NewGenerator(cfg config.LLMConfig) (translator.Generator, error) {
	limiter := NewLimiter(cfg.Concurrency)

	switch cfg.Provider {
	case ProviderOpenAI, "":
		opts := []openai.Option{
			openai.WithModel(cfg.Model),
			openai.WithToken(cfg.ApiKey),
			openai.WithHTTPClient(logger.NewHTTPClient(modelHTTPTimeout)),
		}
		if cfg.URL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.URL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			log.Error("AI大模型初始化失败", "err", err)
			return nil, err
		}
		return NewLangChainGenerator(client, cfg.Model, cfg.Temperature, limiter), nil
	case ProviderGigaChat:
		if cfg.GigaChat.Credentials == "" {
			return nil, fmt.Errorf("gigachat credentials are required")
		}
		return NewGigaChatGenerator(cfg.GigaChat, cfg.Model, cfg.Temperature, limiter), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
