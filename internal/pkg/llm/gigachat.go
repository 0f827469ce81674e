package llm

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/config"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/translator"
)

// tokenSkew 令牌提前刷新的余量
const tokenSkew = 30 * time.Second

type gigaChatToken struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt 毫秒时间戳
	ExpiresAt int64 `json:"expires_at"`
}

type gigaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type gigaChatRequest struct {
	Model       string            `json:"model"`
	Messages    []gigaChatMessage `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
}

type gigaChatResponse struct {
	Choices []struct {
		Message gigaChatMessage `json:"message"`
	} `json:"choices"`
}

// GigaChatGenerator 直接调用 GigaChat REST 接口：先用 Basic 凭证换取访问令牌，令牌到期前复用
type GigaChatGenerator struct {
	client      *resty.Client
	cfg         config.GigaChatConfig
	model       string
	temperature float64
	limiter     *Limiter

	mu        sync.Mutex
	token     string
	expiresAt time.Time
	now       func() time.Time
}

func NewGigaChatGenerator(cfg config.GigaChatConfig, model string, temperature float64, limiter *Limiter) *GigaChatGenerator {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSkip {
		// GigaChat 网关证书由 Russian Trusted Root CA 签发
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	client := resty.New().
		SetTransport(&logger.HTTPTransport{Transport: transport}).
		SetTimeout(60 * time.Second).
		SetHeader("Accept", "application/json")
	client.JSONMarshal = json.Marshal
	client.JSONUnmarshal = json.Unmarshal

	return &GigaChatGenerator{
		client:      client,
		cfg:         cfg,
		model:       model,
		temperature: temperature,
		limiter:     limiter,
		now:         time.Now,
	}
}

func (g *GigaChatGenerator) Generate(ctx context.Context, prompt translator.Prompt) (string, error) {
	release, err := g.limiter.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	content, status, err := g.chat(ctx, prompt)
	if status == http.StatusUnauthorized {
		// 令牌被服务端提前吊销，刷新后重试一次
		g.invalidate()
		content, _, err = g.chat(ctx, prompt)
	}
	return content, err
}

func (g *GigaChatGenerator) chat(ctx context.Context, prompt translator.Prompt) (string, int, error) {
	token, err := g.accessToken(ctx)
	if err != nil {
		return "", 0, err
	}

	log.InfoContext(ctx, "正在请求AI大模型", "model", g.model)
	var out gigaChatResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(gigaChatRequest{
			Model: g.model,
			Messages: []gigaChatMessage{
				{Role: "system", Content: prompt.System},
				{Role: "user", Content: prompt.User},
			},
			Temperature: g.temperature,
		}).
		SetResult(&out).
		Post(g.cfg.ChatURL)
	if err != nil {
		return "", 0, err
	}
	if resp.IsError() {
		return "", resp.StatusCode(), fmt.Errorf("gigachat chat: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", resp.StatusCode(), errors.New("gigachat chat: no choices")
	}
	return out.Choices[0].Message.Content, resp.StatusCode(), nil
}

func (g *GigaChatGenerator) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token != "" && g.now().Add(tokenSkew).Before(g.expiresAt) {
		return g.token, nil
	}

	var tok gigaChatToken
	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Basic "+g.cfg.Credentials).
		SetHeader("RqUID", uuid.NewString()).
		SetFormData(map[string]string{"scope": g.cfg.Scope}).
		SetResult(&tok).
		Post(g.cfg.AuthURL)
	if err != nil {
		return "", err
	}
	if resp.IsError() || tok.AccessToken == "" {
		return "", fmt.Errorf("gigachat oauth: status %d: %s", resp.StatusCode(), resp.String())
	}

	g.token = tok.AccessToken
	g.expiresAt = time.UnixMilli(tok.ExpiresAt)
	log.InfoContext(ctx, "GigaChat 访问令牌已刷新", "expires_at", g.expiresAt)
	return g.token, nil
}

func (g *GigaChatGenerator) invalidate() {
	g.mu.Lock()
	g.token = ""
	g.mu.Unlock()
}
